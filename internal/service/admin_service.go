package service

import (
	"time"

	"petcare/internal/db"
	"petcare/internal/entities"
	"petcare/internal/repository"
)

type AdminService struct {
	slots    *repository.SlotRepository
	bookings *repository.BookingRepository
	orders   *repository.OrderRepository
	products *repository.ProductRepository
	services *repository.ServiceRepository
	users    *repository.UserRepository
	stripe   *StripeService
}

func NewAdminService(
	slots *repository.SlotRepository,
	bookings *repository.BookingRepository,
	orders *repository.OrderRepository,
	products *repository.ProductRepository,
	services *repository.ServiceRepository,
	users *repository.UserRepository,
	stripe *StripeService,
) *AdminService {
	return &AdminService{
		slots:    slots,
		bookings: bookings,
		orders:   orders,
		products: products,
		services: services,
		users:    users,
		stripe:   stripe,
	}
}

// Slots

func (s *AdminService) CreateSlots(startTimes []time.Time) ([]db.BookingSlot, error) {
	return s.slots.CreateSlots(startTimes)
}

func (s *AdminService) ListSlots(from, to time.Time) ([]entities.AdminSlotResponse, error) {
	slots, err := s.slots.ListAll(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]entities.AdminSlotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, entities.AdminSlotResponse{
			ID:        slot.ID,
			StartsAt:  slot.StartsAt,
			Claimed:   slot.Claimed,
			ClaimedBy: slot.ClaimedBy,
			BookingID: slot.BookingID,
		})
	}
	return out, nil
}

// FreeSlot is the single path that reverts a claim.
func (s *AdminService) FreeSlot(id int) error {
	return s.slots.Free(id)
}

func (s *AdminService) DeleteSlot(id int) error {
	return s.slots.Delete(id)
}

// Bookings and orders

func (s *AdminService) ListBookings(date, kind, status string) ([]db.Booking, error) {
	return s.bookings.ListAdmin(date, kind, status)
}

// UpdateBookingStatus applies an admin transition. Canceling a paid booking
// also refunds the captured payment.
func (s *AdminService) UpdateBookingStatus(code, to string) error {
	booking, err := s.bookings.GetByCode(code)
	if err != nil {
		return err
	}

	paymentStatus := booking.PaymentStatus
	if to == db.StatusCanceled && booking.Status == db.StatusPaid {
		if err := s.stripe.RefundPaymentIntent(booking.StripePaymentIntentID); err != nil {
			return err
		}
		paymentStatus = db.PaymentRefundPending
	}

	return s.bookings.UpdateStatus(booking.ID, booking.Status, to, paymentStatus)
}

func (s *AdminService) ListOrders(date, status string) ([]db.Order, error) {
	return s.orders.ListAdmin(date, status)
}

func (s *AdminService) UpdateOrderStatus(code, to string) error {
	order, err := s.orders.GetByCode(code)
	if err != nil {
		return err
	}
	return s.orders.UpdateStatus(order.ID, order.Status, to)
}

// Catalog

func (s *AdminService) CreateCategory(name string) (*db.Category, error) {
	return s.products.CreateCategory(name)
}

func (s *AdminService) DeleteCategory(id int) error {
	return s.products.DeleteCategory(id)
}

func (s *AdminService) CreateProduct(req entities.ProductRequest) (*db.Product, error) {
	product := &db.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.products.CreateProduct(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *AdminService) UpdateProduct(id int, req entities.ProductRequest) (*db.Product, error) {
	product, err := s.products.GetProduct(id)
	if err != nil {
		return nil, err
	}
	product.CategoryID = req.CategoryID
	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	if err := s.products.UpdateProduct(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *AdminService) SetProductImage(id int, imageURL string) error {
	return s.products.SetProductImage(id, imageURL)
}

func (s *AdminService) DeleteProduct(id int) error {
	return s.products.DeleteProduct(id)
}

// Care services

func (s *AdminService) ListServices(kind string) ([]db.CareService, error) {
	return s.services.List(kind, false)
}

func (s *AdminService) CreateService(req entities.CareServiceRequest) (*db.CareService, error) {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	svc := &db.CareService{
		Kind:        req.Kind,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      active,
	}
	if err := s.services.Create(svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *AdminService) UpdateService(id int, req entities.CareServiceRequest) (*db.CareService, error) {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	svc := &db.CareService{
		ID:          id,
		Kind:        req.Kind,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      active,
	}
	if err := s.services.Update(svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *AdminService) DeleteService(id int) error {
	return s.services.Delete(id)
}

// Roles

func (s *AdminService) GrantDoctorRole(phone string) error {
	return s.users.SetRoleByPhone(phone, db.RoleDoctor)
}

func (s *AdminService) RevokeDoctorRole(phone string) error {
	return s.users.SetRoleByPhone(phone, db.RoleCustomer)
}
