package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// maxBodyBytes caps request bodies; the largest legitimate payload here is a
// product upsert, which is tiny.
const maxBodyBytes = 1 << 20

type RouterConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter wires every handler behind the shared middleware chain.
// Category reads are public; everything touching products or carts requires
// a verified bearer token.
func NewRouter(
	cfg RouterConfig,
	verifier TokenVerifier,
	authH *AuthHandler,
	productH *ProductHandler,
	categoryH *CategoryHandler,
	cartH *CartHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LogMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(maxBodyBytes))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categoryH.List)
		r.Get("/{categoryID}", categoryH.Get)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(verifier))
			r.Post("/", categoryH.Create)
			r.Put("/{categoryID}", categoryH.Update)
			r.Delete("/{categoryID}", categoryH.Delete)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Use(AuthMiddleware(verifier))
		r.Get("/", productH.List)
		r.Get("/{productID}", productH.Get)
		r.Post("/", productH.Create)
		r.Put("/{productID}", productH.Update)
		r.Delete("/{productID}", productH.Delete)
	})

	r.Route("/users/{userID}/cart", func(r chi.Router) {
		r.Use(AuthMiddleware(verifier))
		r.Get("/", cartH.GetCart)
		r.Post("/", cartH.AddItem)
		r.Put("/", cartH.UpdateQuantity)
		r.Delete("/items/{productID}", cartH.RemoveItem)
		r.Delete("/", cartH.ClearCart)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}
