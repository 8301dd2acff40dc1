package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/commercekit/checkout-backend/internal/modules/address"
	"github.com/commercekit/checkout-backend/internal/modules/cart"
	"github.com/commercekit/checkout-backend/internal/modules/checkout"
	"github.com/commercekit/checkout-backend/internal/modules/currency"
	"github.com/commercekit/checkout-backend/internal/modules/gateway"
	"github.com/commercekit/checkout-backend/internal/modules/identity"
	"github.com/commercekit/checkout-backend/internal/modules/order"
	"github.com/commercekit/checkout-backend/internal/modules/paymentsource"
	"github.com/commercekit/checkout-backend/internal/modules/transaction"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatal(err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Identity ────────────────────────────────────────────
	userRepo := identity.NewPostgresRepository(db)
	identityService := identity.NewService(userRepo, []byte(os.Getenv("JWT_SECRET")))
	identity.NewHandler(identityService).RegisterRoutes(router)

	// ── Collaborator stores ─────────────────────────────────
	orderRepo := order.NewPostgresRepository(db)
	addressRepo := address.NewPostgresRepository(db)
	currencyRepo := currency.NewPostgresRepository(db)
	transactionRepo := transaction.NewPostgresRepository(db)
	sourceRepo := paymentsource.NewPostgresRepository(db)
	sourceService := paymentsource.NewService(sourceRepo)

	// ── Pluggable Gateways ──────────────────────────────────
	completeURL := os.Getenv("APP_BASE_URL") + "/api/v1/checkout/pay/complete"
	gateways := gateway.Registry{
		"card": gateway.NewCardGateway(
			"card",
			os.Getenv("CARD_GATEWAY_API_KEY"),
			os.Getenv("CARD_GATEWAY_API_SECRET"),
			os.Getenv("CARD_GATEWAY_ENV"),
			true,
		),
		"hosted": gateway.NewHostedPageGateway(
			"hosted",
			os.Getenv("HOSTED_GATEWAY_MERCHANT_ID"),
			os.Getenv("HOSTED_GATEWAY_SECRET"),
			os.Getenv("HOSTED_GATEWAY_BASE_URL"),
			completeURL,
			true,
		),
	}

	// ── Cart Session Manager ────────────────────────────────
	sessionStore := cart.NewRedisStore(redisClient)
	purgeAge := durationEnv("PURGE_CART_MAX_AGE", 90*24*time.Hour)
	cartService := cart.NewService(orderRepo, addressRepo, currencyRepo, sessionStore)
	cart.NewHandler(cartService, identityService, purgeAge).RegisterRoutes(router)

	// ── Checkout Orchestration ──────────────────────────────
	settings := checkout.Settings{
		RequireShippingAddress: boolEnv("REQUIRE_SHIPPING_ADDRESS"),
		RequireBillingAddress:  boolEnv("REQUIRE_BILLING_ADDRESS"),
	}
	metrics := checkout.NewMetrics(prometheus.DefaultRegisterer)
	checkoutService := checkout.NewService(
		cartService, orderRepo, transactionRepo, currencyRepo,
		gateways, sourceService, settings, metrics,
	)
	checkout.NewHandler(checkoutService, identityService, sessionStore).RegisterRoutes(router)

	router.Handle("/metrics", promhttp.Handler())

	// Background purge of stale incomplete carts.
	go purgeLoop(cartService, purgeAge)

	// ── Start Server ─────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Checkout API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}

func purgeLoop(carts cart.Service, maxAge time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		count, err := carts.PurgeIncompleteCarts(ctx, maxAge)
		cancel()
		if err != nil {
			log.Printf("cart purge failed: %v", err)
			continue
		}
		if count > 0 {
			log.Printf("purged %d stale carts", count)
		}
	}
}

func boolEnv(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	}
	return false
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default", key, v)
		return fallback
	}
	return d
}
