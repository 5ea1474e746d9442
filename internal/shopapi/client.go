package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

const uploadOKMessage = "Successfully upload"

var (
	ErrNoToken      = errors.New("login response carried no token")
	ErrUploadFailed = errors.New("image upload failed")
)

// StatusError reports a non-2xx response from the shop API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shop api returned status %d", e.Code)
}

// Client is a typed wrapper around the remote shop API. Zero value is not
// usable; construct with New and bind a token per session with WithToken.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithToken returns a copy of the client that attaches the given bearer
// token to every request.
func (c *Client) WithToken(token string) *Client {
	bound := *c
	bound.token = token
	return &bound
}

// Login exchanges credentials for a bearer token. The only call that goes
// out without an Authorization header.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	body := map[string]string{"login": login, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/login", nil, body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", ErrNoToken
	}
	return out.Token, nil
}

func (c *Client) ListUsers(ctx context.Context, name string) ([]User, error) {
	query := url.Values{}
	if name != "" {
		query.Set("name", name)
	}
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/list", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) CreateUser(ctx context.Context, in UserInput) error {
	return c.do(ctx, http.MethodPost, "/users/create", nil, in, nil)
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserInput) error {
	return c.do(ctx, http.MethodPut, "/users/update", idQuery(id), in, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/delete", idQuery(id), nil, nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	// The upstream names this field "Categorys".
	var out struct {
		Categories []Category `json:"Categorys"`
	}
	if err := c.do(ctx, http.MethodGet, "/category/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) error {
	return c.do(ctx, http.MethodPost, "/category/create", nil, in, nil)
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in CategoryInput) error {
	return c.do(ctx, http.MethodPut, "/category/update", idQuery(id), in, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/category/delete", idQuery(id), nil, nil)
}

func (c *Client) ListProducts(ctx context.Context, categoryID string) ([]Product, error) {
	query := url.Values{}
	if categoryID != "" {
		query.Set("category_id", categoryID)
	}
	var out struct {
		Products []Product `json:"Products"`
	}
	if err := c.do(ctx, http.MethodGet, "/product/list", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) error {
	return c.do(ctx, http.MethodPost, "/product/create", nil, in, nil)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) error {
	return c.do(ctx, http.MethodPut, "/product/update", idQuery(id), in, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/product/delete", idQuery(id), nil, nil)
}

// GetDebts lists debt records for one user in one status. The upstream
// filter parameter for the user is "id".
func (c *Client) GetDebts(ctx context.Context, userID, status string) ([]Debt, error) {
	query := url.Values{}
	if userID != "" {
		query.Set("id", userID)
	}
	query.Set("status", status)
	var out struct {
		DebtLogs []Debt `json:"debt_logs"`
	}
	if err := c.do(ctx, http.MethodGet, "/debt/get", query, nil, &out); err != nil {
		return nil, err
	}
	return out.DebtLogs, nil
}

func (c *Client) CreateDebt(ctx context.Context, in DebtInput) error {
	return c.do(ctx, http.MethodPost, "/debt/create", nil, in, nil)
}

func (c *Client) UpdateDebt(ctx context.Context, id string, in DebtUpdate) error {
	return c.do(ctx, http.MethodPut, "/debt/update", idQuery(id), in, nil)
}

func (c *Client) GetOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, http.MethodGet, "/order/get", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id string, status OrderStatus) (*Order, error) {
	body := map[string]string{"status": string(status)}
	var out Order
	if err := c.do(ctx, http.MethodPut, "/order/update", idQuery(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage submits a file to the upload endpoint and returns the hosted
// URL. The upstream signals success through its Message field rather than
// the status code alone.
func (c *Client) UploadImage(ctx context.Context, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/img-upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode}
	}
	var out struct {
		Message string `json:"Message"`
		URL     string `json:"Url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Message != uploadOKMessage || out.URL == "" {
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, out.Message)
	}
	return out.URL, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func idQuery(id string) url.Values {
	query := url.Values{}
	query.Set("id", id)
	return query
}
