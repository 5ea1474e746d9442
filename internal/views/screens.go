package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"shopadmin/internal/shopapi"
)

// ShopAPI is the slice of the shop client the CRUD screens use.
type ShopAPI interface {
	ListCategories(ctx context.Context) ([]shopapi.Category, error)
	CreateCategory(ctx context.Context, in shopapi.CategoryInput) error
	UpdateCategory(ctx context.Context, id string, in shopapi.CategoryInput) error
	DeleteCategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context, categoryID string) ([]shopapi.Product, error)
	CreateProduct(ctx context.Context, in shopapi.ProductInput) error
	UpdateProduct(ctx context.Context, id string, in shopapi.ProductInput) error
	DeleteProduct(ctx context.Context, id string) error

	ListUsers(ctx context.Context, name string) ([]shopapi.User, error)
	CreateUser(ctx context.Context, in shopapi.UserInput) error
	UpdateUser(ctx context.Context, id string, in shopapi.UserInput) error
	DeleteUser(ctx context.Context, id string) error

	UploadImage(ctx context.Context, filename string, file io.Reader) (string, error)

	GetOrders(ctx context.Context) ([]shopapi.Order, error)
	UpdateOrder(ctx context.Context, id string, status shopapi.OrderStatus) (*shopapi.Order, error)
}

func Categories(api ShopAPI) *View[shopapi.Category, shopapi.CategoryInput] {
	return &View[shopapi.Category, shopapi.CategoryInput]{
		list: func(ctx context.Context, _ string) ([]shopapi.Category, error) {
			return api.ListCategories(ctx)
		},
		create: api.CreateCategory,
		update: api.UpdateCategory,
		remove: api.DeleteCategory,
		validate: func(in shopapi.CategoryInput, _ bool) error {
			if strings.TrimSpace(in.Name) == "" {
				return fmt.Errorf("%w: name is required", ErrValidation)
			}
			return nil
		},
	}
}

func Users(api ShopAPI) *View[shopapi.User, shopapi.UserInput] {
	return &View[shopapi.User, shopapi.UserInput]{
		list:   api.ListUsers,
		create: api.CreateUser,
		update: api.UpdateUser,
		remove: api.DeleteUser,
		validate: func(in shopapi.UserInput, creating bool) error {
			if strings.TrimSpace(in.Name) == "" {
				return fmt.Errorf("%w: name is required", ErrValidation)
			}
			if strings.TrimSpace(in.PhoneNumber) == "" {
				return fmt.Errorf("%w: phone_number is required", ErrValidation)
			}
			// A password is only mandatory for a new account.
			if creating && strings.TrimSpace(in.Password) == "" {
				return fmt.Errorf("%w: password is required", ErrValidation)
			}
			return nil
		},
	}
}

// PendingImage is a form file selected but not yet uploaded.
type PendingImage struct {
	Filename string
	Data     io.Reader
}

// ProductsView adds the image-upload step to the generic CRUD screen.
type ProductsView struct {
	*View[shopapi.Product, shopapi.ProductInput]
	upload func(ctx context.Context, filename string, file io.Reader) (string, error)
}

func Products(api ShopAPI) *ProductsView {
	return &ProductsView{
		View: &View[shopapi.Product, shopapi.ProductInput]{
			list:   api.ListProducts,
			create: api.CreateProduct,
			update: api.UpdateProduct,
			remove: api.DeleteProduct,
			validate: func(in shopapi.ProductInput, _ bool) error {
				if strings.TrimSpace(in.Name) == "" {
					return fmt.Errorf("%w: name is required", ErrValidation)
				}
				if strings.TrimSpace(in.CategoryID) == "" {
					return fmt.Errorf("%w: category_id is required", ErrValidation)
				}
				return nil
			},
		},
		upload: api.UploadImage,
	}
}

// Save submits a product form. When an image is attached it is uploaded
// first and the returned URL substituted into the payload; an upload
// failure aborts the submission so no partial product is created. An empty
// id creates, otherwise updates.
func (v *ProductsView) Save(ctx context.Context, id string, in shopapi.ProductInput, image *PendingImage) ([]shopapi.Product, error) {
	if err := v.validate(in, id == ""); err != nil {
		return nil, err
	}
	if image != nil {
		url, err := v.upload(ctx, image.Filename, image.Data)
		if err != nil {
			return nil, fmt.Errorf("image upload: %w", err)
		}
		in.ImgURL = url
	}
	if id == "" {
		return v.Create(ctx, in)
	}
	return v.Update(ctx, id, in)
}

// OrdersView lists orders and moves them through the fixed status set.
// Orders are created by the shop app, never here.
type OrdersView struct {
	api    ShopAPI
	orders []shopapi.Order
}

func Orders(api ShopAPI) *OrdersView {
	return &OrdersView{api: api}
}

func (v *OrdersView) List(ctx context.Context) ([]shopapi.Order, error) {
	orders, err := v.api.GetOrders(ctx)
	if err != nil {
		return nil, err
	}
	v.orders = orders
	return orders, nil
}

func (v *OrdersView) Items() []shopapi.Order {
	return v.orders
}

// UpdateStatus validates the status against the known set, submits it and
// re-lists.
func (v *OrdersView) UpdateStatus(ctx context.Context, id string, status shopapi.OrderStatus) ([]shopapi.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}
	if _, err := v.api.UpdateOrder(ctx, id, status); err != nil {
		return nil, err
	}
	return v.List(ctx)
}
