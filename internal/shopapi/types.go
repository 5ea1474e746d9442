package shopapi

import "time"

type User struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PhoneNumber string  `json:"phone_number"`
	Debt        float64 `json:"debt"`
}

type UserInput struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password,omitempty"`
}

const (
	DebtStatusTook = "took"
	DebtStatusGave = "gave"
)

// Debt is a credit record owed by a user to the shop. TakenTime is only
// present once the debt has been settled (status "gave").
type Debt struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Amount    float64    `json:"amount"`
	Reason    string     `json:"reason"`
	Status    string     `json:"status"`
	GivenTime time.Time  `json:"given_time"`
	TakenTime *time.Time `json:"taken_time,omitempty"`
}

type DebtInput struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

type DebtUpdate struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
	Status string  `json:"status"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CategoryInput struct {
	Name string `json:"name"`
}

type Product struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Count       int     `json:"count"`
	Size        int     `json:"size"`
	Type        string  `json:"type"`
	ImgURL      string  `json:"img_url"`
}

type ProductInput struct {
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Count       int     `json:"count"`
	Size        int     `json:"size"`
	Type        string  `json:"type"`
	ImgURL      string  `json:"img_url"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderCompleted OrderStatus = "completed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderReturned  OrderStatus = "returned"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderPending:   "Kutilmoqda",
	OrderConfirmed: "Tasdiqlandi",
	OrderShipped:   "Tayyorlanmoqda",
	OrderCompleted: "Tayyor",
	OrderDelivered: "Yetkazildi",
	OrderCancelled: "Bekor qilindi",
	OrderReturned:  "Qaytarilgan",
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Label returns the localized display name for the status, or the raw
// value when the status is outside the known set.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type OrderItem struct {
	ProductName  string  `json:"product_name"`
	ProductSize  int     `json:"product_size"`
	ProductType  string  `json:"product_type"`
	ProductPrice float64 `json:"product_price"`
	Count        int     `json:"count"`
	ImgURL       string  `json:"img_url"`
}

type Order struct {
	ID          string      `json:"id"`
	Items       []OrderItem `json:"orders"`
	PaymentType string      `json:"payment_type"`
	TotalPrice  float64     `json:"total_price"`
	Status      OrderStatus `json:"status"`
	Location    Location    `json:"location"`
	Description string      `json:"description"`
}

type Stats struct {
	Categories int     `json:"categories"`
	Products   int     `json:"products"`
	Users      int     `json:"users"`
	TotalDebt  float64 `json:"totalDebt"`
}
