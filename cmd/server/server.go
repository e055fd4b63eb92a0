package main

import (
	"fmt"
	"log"
	"net/http"

	"wayfinder/config"
	"wayfinder/handlers"
	"wayfinder/services"
	"wayfinder/services/chat"
	"wayfinder/services/credentials"
	"wayfinder/services/docstore"
	"wayfinder/services/vision"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	if cfg.KibanaURL == "" {
		log.Fatal("KIBANA_URL environment variable is required")
	}

	if cfg.KibanaAPIKey == "" {
		log.Fatal("ELASTICSEARCH_APIKEY environment variable is required")
	}

	store := docstore.NewClient(cfg.SearchURL, cfg.SearchAPIKey)
	creds := credentials.NewManager()

	visionService := vision.NewService(creds)
	visionHandler := handlers.NewVisionHandler(visionService)

	chatService := chat.NewService(cfg.KibanaURL, cfg.KibanaAPIKey, visionService)
	chatHandler := handlers.NewChatHandler(chatService, cfg.DefaultAgentID)

	productService := services.NewProductService(store)
	productHandler := handlers.NewProductHandler(productService)

	cartService := services.NewCartService(productService)
	cartHandler := handlers.NewCartHandler(cartService)

	reviewService := services.NewReviewService(store, productService)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	clickstreamService := services.NewClickstreamService(store, productService)
	clickstreamHandler := handlers.NewClickstreamHandler(clickstreamService)

	orderService := services.NewOrderService(store, cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	settingsHandler := handlers.NewSettingsHandler(creds, visionService)

	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(apiKeyMiddleware(cfg.BackendAPIKey))

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	api := router.PathPrefix("/api").Subrouter()

	chatHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)
	cartHandler.RegisterRoutes(api)
	reviewHandler.RegisterRoutes(api)
	clickstreamHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	visionHandler.RegisterRoutes(api)
	settingsHandler.RegisterRoutes(api)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// apiKeyMiddleware enforces the X-API-Key header when a backend key is
// configured. An empty key disables auth entirely; /health stays open so
// probes work either way.
func apiKeyMiddleware(apiKey string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" || r.URL.Path == "/health" || r.Method == "OPTIONS" {
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get("X-API-Key") != apiKey {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "Invalid or missing API key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
