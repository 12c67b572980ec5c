package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"petcare/internal/auth"
	"petcare/internal/entities"
	"petcare/internal/repository"
	"petcare/internal/service"

	"github.com/gorilla/mux"
)

type ShopHandler struct {
	Service *service.ShopService
}

func NewShopHandler(svc *service.ShopService) *ShopHandler {
	return &ShopHandler{Service: svc}
}

func (h *ShopHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories()
	if err != nil {
		http.Error(w, "Could not list categories", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categories)
}

func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID := 0
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid category_id", http.StatusBadRequest)
			return
		}
		categoryID = id
	}
	products, err := h.Service.ListProducts(categoryID)
	if err != nil {
		http.Error(w, "Could not list products", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(products)
}

func (h *ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}
	product, err := h.Service.GetProduct(id)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

func (h *ShopHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	resp, err := h.Service.PlaceOrder(claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		case errors.Is(err, service.ErrOutOfStock):
			http.Error(w, "Not enough stock", http.StatusConflict)
		default:
			http.Error(w, "Could not place order", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *ShopHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	code := mux.Vars(r)["code"]
	order, err := h.Service.GetOrder(code, claims.UserID)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(order)
}

func (h *ShopHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	orders, err := h.Service.ListOrders(claims.UserID)
	if err != nil {
		http.Error(w, "Could not list orders", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}
