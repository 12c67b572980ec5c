package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"petcare/internal/entities"
	"petcare/internal/repository"
	"petcare/internal/service"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	Service *service.AdminService
	Uploads *UploadStore
}

func NewAdminHandler(svc *service.AdminService, uploads *UploadStore) *AdminHandler {
	return &AdminHandler{Service: svc, Uploads: uploads}
}

// Slots

func (h *AdminHandler) CreateSlots(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	slots, err := h.Service.CreateSlots(req.StartTimes)
	if err != nil {
		http.Error(w, "Could not create slots", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(slots)
}

func (h *AdminHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	from := time.Now()
	to := from.AddDate(0, 1, 0)
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid from timestamp", http.StatusBadRequest)
			return
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid to timestamp", http.StatusBadRequest)
			return
		}
		to = t
	}
	slots, err := h.Service.ListSlots(from, to)
	if err != nil {
		http.Error(w, "Could not list slots", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(slots)
}

func (h *AdminHandler) FreeSlot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid slot id", http.StatusBadRequest)
		return
	}
	if err := h.Service.FreeSlot(id); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotNotFound):
			http.Error(w, "Slot not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrSlotOpen):
			http.Error(w, "Slot is not claimed", http.StatusConflict)
		default:
			http.Error(w, "Could not free slot", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Slot freed"})
}

func (h *AdminHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid slot id", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteSlot(id); err != nil {
		http.Error(w, "Slot not found or already claimed", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Slot deleted"})
}

// Bookings

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookings, err := h.Service.ListBookings(q.Get("date"), q.Get("kind"), q.Get("status"))
	if err != nil {
		http.Error(w, "Could not list bookings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

func (h *AdminHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var req entities.UpdateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	if err := h.Service.UpdateBookingStatus(code, req.Status); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			http.Error(w, "Booking not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrBadStatusChange):
			http.Error(w, "Invalid status transition", http.StatusConflict)
		default:
			http.Error(w, "Could not update booking", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Booking updated"})
}

// Orders

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.Service.ListOrders(q.Get("date"), q.Get("status"))
	if err != nil {
		http.Error(w, "Could not list orders", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var req struct {
		Status string `json:"status" validate:"required,oneof=paid shipped delivered canceled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	if err := h.Service.UpdateOrderStatus(code, req.Status); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrBadStatusChange):
			http.Error(w, "Invalid status transition", http.StatusConflict)
		default:
			http.Error(w, "Could not update order", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Order updated"})
}

// Catalog

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req entities.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	category, err := h.Service.CreateCategory(req.Name)
	if err != nil {
		http.Error(w, "Could not create category", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(category)
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid category id", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteCategory(id); err != nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Category deleted"})
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req entities.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	product, err := h.Service.CreateProduct(req)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not create product", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(product)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}
	var req entities.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	product, err := h.Service.UpdateProduct(id, req)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not update product", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

func (h *AdminHandler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}
	url, err := h.Uploads.Save(r, "image")
	if err != nil {
		if errors.Is(err, ErrBadImageType) {
			http.Error(w, "Unsupported image type", http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not store image", http.StatusInternalServerError)
		return
	}
	if err := h.Service.SetProductImage(id, url); err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"image_url": url})
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteProduct(id); err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Product deleted"})
}

// Care services

func (h *AdminHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Service.ListServices(r.URL.Query().Get("kind"))
	if err != nil {
		http.Error(w, "Could not list services", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(services)
}

func (h *AdminHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req entities.CareServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	svc, err := h.Service.CreateService(req)
	if err != nil {
		http.Error(w, "Could not create service", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(svc)
}

func (h *AdminHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid service id", http.StatusBadRequest)
		return
	}
	var req entities.CareServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	svc, err := h.Service.UpdateService(id, req)
	if err != nil {
		if errors.Is(err, repository.ErrServiceNotFound) {
			http.Error(w, "Service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not update service", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(svc)
}

func (h *AdminHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid service id", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteService(id); err != nil {
		http.Error(w, "Service not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Service deleted"})
}

// Roles

type roleRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

func (h *AdminHandler) GrantDoctorRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	if err := h.Service.GrantDoctorRole(req.Phone); err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Doctor role granted"})
}

func (h *AdminHandler) RevokeDoctorRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	if err := h.Service.RevokeDoctorRole(req.Phone); err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Doctor role revoked"})
}
