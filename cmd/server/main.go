package main

import (
	"log"
	"net/http"
	"os"

	"petcare/internal/api"
	"petcare/internal/auth"
	"petcare/internal/config"
	"petcare/internal/db"
	"petcare/internal/redislock"
	"petcare/internal/repository"
	"petcare/internal/service"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	redisClient, err := redislock.NewClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	locker := redislock.NewRedisSlotLocker(redisClient, cfg.SlotLockTTL)

	// Repositories
	users := repository.NewUserRepository(database)
	pets := repository.NewPetRepository(database)
	reminders := repository.NewReminderRepository(database)
	slots := repository.NewSlotRepository(database)
	bookings := repository.NewBookingRepository(database)
	products := repository.NewProductRepository(database)
	orders := repository.NewOrderRepository(database)
	careServices := repository.NewServiceRepository(database)
	adminAuthRepo := repository.NewAdminAuthRepository(database)
	jobs := repository.NewJobRepository(database)

	// Services
	stripeSvc := service.NewStripeService(cfg.StripeSecretKey, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	sender := service.NewSenderService(cfg)
	authSvc := service.NewAuthService(cfg, users)
	petSvc := service.NewPetService(pets, reminders)
	bookingSvc := service.NewBookingService(bookings, slots, pets, users, careServices, stripeSvc, sender)
	reservationSvc := service.NewReservationService(slots, bookings, stripeSvc, sender, locker)
	shopSvc := service.NewShopService(products, orders, users, stripeSvc)
	adminSvc := service.NewAdminService(slots, bookings, orders, products, careServices, users, stripeSvc)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo, cfg.JWTSecret, cfg.AdminSessionTTL)
	doctorSvc := service.NewDoctorService(bookings)
	jobSvc := service.NewJobService(jobs, reminders, sender, cfg.PendingBookingTTL)

	// Handlers
	uploads := api.NewUploadStore(cfg.UploadDir, cfg.PublicBaseURL)
	authHandler := api.NewAuthHandler(authSvc)
	petHandler := api.NewPetHandler(petSvc, uploads)
	bookingHandler := api.NewBookingHandler(bookingSvc)
	shopHandler := api.NewShopHandler(shopSvc)
	stripeHandler := api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, reservationSvc, bookingSvc, shopSvc)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthSvc)
	adminHandler := api.NewAdminHandler(adminSvc, uploads)
	doctorHandler := api.NewDoctorHandler(doctorSvc)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/otp/start", authHandler.StartOTP).Methods("POST")
	r.HandleFunc("/api/auth/otp/check", authHandler.CheckOTP).Methods("POST")
	r.HandleFunc("/api/slots", bookingHandler.ListOpenSlots).Methods("GET")
	r.HandleFunc("/api/services", bookingHandler.ListServices).Methods("GET")
	r.HandleFunc("/api/categories", shopHandler.ListCategories).Methods("GET")
	r.HandleFunc("/api/products", shopHandler.ListProducts).Methods("GET")
	r.HandleFunc("/api/products/{id}", shopHandler.GetProduct).Methods("GET")
	r.HandleFunc("/api/bookings/confirmation", bookingHandler.Confirmation).Methods("GET")
	r.HandleFunc("/api/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")
	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")

	// Customer endpoints (authenticated)
	user := r.PathPrefix("/api").Subrouter()
	user.Use(auth.Middleware(cfg.JWTSecret))
	user.HandleFunc("/me", authHandler.GetProfile).Methods("GET")
	user.HandleFunc("/me", authHandler.UpdateProfile).Methods("PUT")
	user.HandleFunc("/pets", petHandler.CreatePet).Methods("POST")
	user.HandleFunc("/pets", petHandler.ListPets).Methods("GET")
	user.HandleFunc("/pets/{id}", petHandler.GetPet).Methods("GET")
	user.HandleFunc("/pets/{id}", petHandler.UpdatePet).Methods("PUT")
	user.HandleFunc("/pets/{id}", petHandler.DeletePet).Methods("DELETE")
	user.HandleFunc("/pets/{id}/image", petHandler.UploadPetImage).Methods("POST")
	user.HandleFunc("/reminders", petHandler.CreateReminder).Methods("POST")
	user.HandleFunc("/reminders", petHandler.ListReminders).Methods("GET")
	user.HandleFunc("/reminders/{id}", petHandler.DeleteReminder).Methods("DELETE")
	user.HandleFunc("/bookings/vaccination", bookingHandler.CreateVaccinationBooking).Methods("POST")
	user.HandleFunc("/bookings/grooming", bookingHandler.CreateGroomingBooking).Methods("POST")
	user.HandleFunc("/bookings/hostel", bookingHandler.CreateHostelBooking).Methods("POST")
	user.HandleFunc("/bookings", bookingHandler.ListBookings).Methods("GET")
	user.HandleFunc("/bookings/{code}", bookingHandler.GetBooking).Methods("GET")
	user.HandleFunc("/orders", shopHandler.PlaceOrder).Methods("POST")
	user.HandleFunc("/orders", shopHandler.ListOrders).Methods("GET")
	user.HandleFunc("/orders/{code}", shopHandler.GetOrder).Methods("GET")

	// Doctor endpoints
	doctor := r.PathPrefix("/doctor").Subrouter()
	doctor.Use(auth.DoctorMiddleware(cfg.JWTSecret))
	doctor.HandleFunc("/visits", doctorHandler.VisitsForDay).Methods("GET")
	doctor.HandleFunc("/visits/{code}/complete", doctorHandler.CompleteVisit).Methods("POST")

	// Admin endpoints
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminMiddleware(cfg.JWTSecret))
	admin.HandleFunc("/admins", adminAuthHandler.CreateAdmin).Methods("POST")
	admin.HandleFunc("/slots", adminHandler.CreateSlots).Methods("POST")
	admin.HandleFunc("/slots", adminHandler.ListSlots).Methods("GET")
	admin.HandleFunc("/slots/{id}/free", adminHandler.FreeSlot).Methods("POST")
	admin.HandleFunc("/slots/{id}", adminHandler.DeleteSlot).Methods("DELETE")
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings/{code}/status", adminHandler.UpdateBookingStatus).Methods("PUT")
	admin.HandleFunc("/orders", adminHandler.ListOrders).Methods("GET")
	admin.HandleFunc("/orders/{code}/status", adminHandler.UpdateOrderStatus).Methods("PUT")
	admin.HandleFunc("/categories", adminHandler.CreateCategory).Methods("POST")
	admin.HandleFunc("/categories/{id}", adminHandler.DeleteCategory).Methods("DELETE")
	admin.HandleFunc("/products", adminHandler.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", adminHandler.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", adminHandler.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/products/{id}/image", adminHandler.UploadProductImage).Methods("POST")
	admin.HandleFunc("/services", adminHandler.ListServices).Methods("GET")
	admin.HandleFunc("/services", adminHandler.CreateService).Methods("POST")
	admin.HandleFunc("/services/{id}", adminHandler.UpdateService).Methods("PUT")
	admin.HandleFunc("/services/{id}", adminHandler.DeleteService).Methods("DELETE")
	admin.HandleFunc("/roles/doctor", adminHandler.GrantDoctorRole).Methods("POST")
	admin.HandleFunc("/roles/doctor", adminHandler.RevokeDoctorRole).Methods("DELETE")

	// Uploaded images
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Background jobs
	c := cron.New()
	if _, err := c.AddFunc(cfg.ReminderCronSpec, func() {
		if err := jobSvc.DispatchDueReminders(); err != nil {
			log.Printf("Cron job: dispatch reminders: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid reminder cron spec %q: %v", cfg.ReminderCronSpec, err)
	}
	if _, err := c.AddFunc("@every 10m", func() {
		if err := jobSvc.ExpireStalePending(); err != nil {
			log.Printf("Cron job: expire stale pending: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule expiry job: %v", err)
	}
	if _, err := c.AddFunc("@hourly", func() {
		if err := jobSvc.CompletePastBookings(); err != nil {
			log.Printf("Cron job: complete past bookings: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule completion job: %v", err)
	}
	c.Start()
	defer c.Stop()

	corsHandler := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Stripe-Signature"}),
	)

	log.Printf("Server running on port %s", cfg.HTTPPort)
	log.Fatal(http.ListenAndServe(":"+cfg.HTTPPort, gorillahandlers.LoggingHandler(os.Stdout, corsHandler(r))))
}
