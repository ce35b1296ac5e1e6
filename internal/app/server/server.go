package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/linkdropapp/linkdrop/internal/app/handler"
	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/middleware"
)

// Handlers groups the HTTP handlers wired into the router.
type Handlers struct {
	Get     *handler.GetHandler
	Post    *handler.PostHandler
	Delete  *handler.DeleteHandler
	Account *handler.AccountHandler
	Auth    *handler.AuthHandler
}

// Init builds the chi router with the full middleware stack and routes.
func Init(logger *zap.Logger, auth service.AuthIface, trustedSubnet string, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithGZIP)

	// Public surface.
	r.Get("/ping", h.Get.PingDB)
	r.Get("/api/profiles/{slug}", h.Get.PublicProfile)
	r.Get("/api/username-check", h.Get.Availability)
	r.Get("/files/{owner}/{name}", h.Get.ServeObject)
	r.Get("/{slug}/{linkID}", h.Get.Redirect)
	r.Post("/{slug}/drops/{dropID}", h.Post.Submit)

	// Sign-in flow.
	r.Get("/auth/login", h.Auth.Login)
	r.Get("/auth/callback", h.Auth.Callback)
	r.Post("/auth/logout", h.Auth.Logout)

	// Account deletion orders its own credential and code checks, so it
	// sits outside WithAuth. CORS handles the OPTIONS preflight.
	r.Route("/api/account/delete", func(r chi.Router) {
		r.Use(middleware.WithCORS)
		r.Options("/", func(w http.ResponseWriter, r *http.Request) {})
		r.Post("/", h.Account.DeleteAccount)
	})

	// Authenticated dashboard API.
	r.Group(func(r chi.Router) {
		r.Use(middleware.WithAuth(auth))

		r.Get("/api/profile", h.Get.MyProfile)
		r.Post("/api/profile", h.Post.CreateProfile)
		r.Put("/api/profile", h.Post.UpdateProfile)

		r.Get("/api/links", h.Get.Links)
		r.Post("/api/links", h.Post.AddLink)
		r.Put("/api/links/order", h.Post.ReorderLinks)
		r.Put("/api/links/{linkID}", h.Post.UpdateLink)
		r.Delete("/api/links/{linkID}", h.Delete.DeleteLink)

		r.Get("/api/drops", h.Get.Drops)
		r.Post("/api/drops", h.Post.AddDrop)
		r.Put("/api/drops/order", h.Post.ReorderDrops)
		r.Put("/api/drops/{dropID}", h.Post.UpdateDrop)
		r.Delete("/api/drops/{dropID}", h.Delete.DeleteDrop)

		r.Get("/api/submissions", h.Get.Submissions)

		r.Post("/api/mfa/setup", h.Post.MFASetup)
		r.Post("/api/mfa/enroll", h.Post.MFAEnroll)
		r.Post("/api/mfa/verify", h.Post.MFAVerify)

		r.Post("/api/billing/checkout", h.Post.BillingCheckout)
		r.Post("/api/billing/portal", h.Post.BillingPortal)
	})

	// Ops-only aggregate stats.
	r.Group(func(r chi.Router) {
		r.Use(middleware.WithSubnet(trustedSubnet))
		r.Get("/api/internal/stats", h.Get.Stats)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r
}
