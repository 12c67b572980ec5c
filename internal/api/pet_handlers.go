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

type PetHandler struct {
	Service *service.PetService
	Uploads *UploadStore
}

func NewPetHandler(svc *service.PetService, uploads *UploadStore) *PetHandler {
	return &PetHandler{Service: svc, Uploads: uploads}
}

func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.PetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	pet, err := h.Service.Create(claims.UserID, req)
	if err != nil {
		http.Error(w, "Could not create pet", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(pet)
}

func (h *PetHandler) ListPets(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	pets, err := h.Service.List(claims.UserID)
	if err != nil {
		http.Error(w, "Could not list pets", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pets)
}

func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid pet id", http.StatusBadRequest)
		return
	}
	pet, err := h.Service.Get(id, claims.UserID)
	if err != nil {
		http.Error(w, "Pet not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pet)
}

func (h *PetHandler) UpdatePet(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid pet id", http.StatusBadRequest)
		return
	}
	var req entities.PetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	pet, err := h.Service.Update(id, claims.UserID, req)
	if err != nil {
		if errors.Is(err, repository.ErrPetNotFound) {
			http.Error(w, "Pet not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not update pet", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pet)
}

func (h *PetHandler) UploadPetImage(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid pet id", http.StatusBadRequest)
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
	if err := h.Service.SetImage(id, claims.UserID, url); err != nil {
		http.Error(w, "Pet not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"image_url": url})
}

func (h *PetHandler) DeletePet(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid pet id", http.StatusBadRequest)
		return
	}
	if err := h.Service.Delete(id, claims.UserID); err != nil {
		http.Error(w, "Pet not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Pet deleted"})
}

func (h *PetHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.ReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	reminder, err := h.Service.CreateReminder(claims.UserID, req)
	if err != nil {
		if errors.Is(err, repository.ErrPetNotFound) {
			http.Error(w, "Pet not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not create reminder", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(reminder)
}

func (h *PetHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	reminders, err := h.Service.ListReminders(claims.UserID)
	if err != nil {
		http.Error(w, "Could not list reminders", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reminders)
}

func (h *PetHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid reminder id", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteReminder(id, claims.UserID); err != nil {
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Reminder deleted"})
}
