package entities

import "time"

type OrderItemRequest struct {
	ProductID int `json:"product_id" validate:"required"`
	Quantity  int `json:"quantity" validate:"required,min=1,max=99"`
}

type OrderRequest struct {
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShipName    string             `json:"ship_name" validate:"required,max=120"`
	ShipPhone   string             `json:"ship_phone" validate:"required,max=32"`
	ShipAddress string             `json:"ship_address" validate:"required,max=300"`
}

type OrderItemResponse struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int    `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type OrderResponse struct {
	Code          string              `json:"code"`
	Items         []OrderItemResponse `json:"items"`
	ShipName      string              `json:"ship_name"`
	ShipPhone     string              `json:"ship_phone"`
	ShipAddress   string              `json:"ship_address"`
	Amount        int                 `json:"amount"`
	Currency      string              `json:"currency"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
}

type ProductRequest struct {
	CategoryID  int    `json:"category_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Price       int    `json:"price" validate:"required,min=1"`
	Stock       int    `json:"stock" validate:"min=0"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type CareServiceRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=vaccination grooming hostel"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Price       int    `json:"price" validate:"required,min=1"`
	Active      *bool  `json:"active"`
}
