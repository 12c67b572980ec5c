package service

import (
	"errors"
	"fmt"

	"petcare/internal/db"
	"petcare/internal/entities"
	"petcare/internal/repository"
)

var ErrOutOfStock = errors.New("not enough stock")

type ShopService struct {
	products *repository.ProductRepository
	orders   *repository.OrderRepository
	users    *repository.UserRepository
	stripe   *StripeService
}

func NewShopService(
	products *repository.ProductRepository,
	orders *repository.OrderRepository,
	users *repository.UserRepository,
	stripe *StripeService,
) *ShopService {
	return &ShopService{
		products: products,
		orders:   orders,
		users:    users,
		stripe:   stripe,
	}
}

func (s *ShopService) ListCategories() ([]db.Category, error) {
	return s.products.ListCategories()
}

func (s *ShopService) ListProducts(categoryID int) ([]db.Product, error) {
	return s.products.ListProducts(categoryID)
}

func (s *ShopService) GetProduct(id int) (*db.Product, error) {
	return s.products.GetProduct(id)
}

// PlaceOrder re-prices the cart from the catalog, opens a checkout session
// and stores the order pending. Client-supplied prices are never trusted.
func (s *ShopService) PlaceOrder(userID int, req entities.OrderRequest) (*entities.CheckoutResponse, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(req.Items))
	for _, line := range req.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.GetProductsByIDs(ids)
	if err != nil {
		return nil, err
	}

	var amount int
	var items []db.OrderItem
	for _, line := range req.Items {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		if product.Stock < line.Quantity {
			return nil, ErrOutOfStock
		}
		amount += product.Price * line.Quantity
		items = append(items, db.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
	}

	order := &db.Order{
		Code:          newBookingCode(),
		UserID:        userID,
		ShipName:      req.ShipName,
		ShipPhone:     req.ShipPhone,
		ShipAddress:   req.ShipAddress,
		Amount:        amount,
		Currency:      defaultCurrency,
		Status:        db.StatusPending,
		PaymentStatus: db.PaymentPending,
	}

	description := fmt.Sprintf("PetCare shop order for %s (%d items)", user.Phone, len(items))
	url, sessionID, err := s.stripe.CreateCheckoutSession(int64(amount), order.Currency, description, user.Email)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	order.StripeSessionID = sessionID

	if err := s.orders.Create(order, items); err != nil {
		return nil, err
	}

	return &entities.CheckoutResponse{
		Code:      order.Code,
		URL:       url,
		SessionID: sessionID,
	}, nil
}

// ConfirmOrderPayment marks a pending order paid. Idempotent per session.
func (s *ShopService) ConfirmOrderPayment(sessionID, paymentIntentID string) (*db.Order, error) {
	err := s.orders.MarkPaidBySession(sessionID, paymentIntentID)
	if err != nil && !errors.Is(err, repository.ErrOrderNotPending) {
		return nil, err
	}
	return s.orders.GetBySessionID(sessionID)
}

func (s *ShopService) GetOrder(code string, userID int) (*entities.OrderResponse, error) {
	order, err := s.orders.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return s.toOrderResponse(order, true)
}

func (s *ShopService) ListOrders(userID int) ([]entities.OrderResponse, error) {
	orders, err := s.orders.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.OrderResponse, 0, len(orders))
	for i := range orders {
		resp, err := s.toOrderResponse(&orders[i], false)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *ShopService) toOrderResponse(order *db.Order, withItems bool) (*entities.OrderResponse, error) {
	resp := &entities.OrderResponse{
		Code:          order.Code,
		ShipName:      order.ShipName,
		ShipPhone:     order.ShipPhone,
		ShipAddress:   order.ShipAddress,
		Amount:        order.Amount,
		Currency:      order.Currency,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     order.CreatedAt,
	}
	if withItems {
		items, err := s.orders.GetItems(order.ID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			resp.Items = append(resp.Items, entities.OrderItemResponse{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
			})
		}
	}
	return resp, nil
}
