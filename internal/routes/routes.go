// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"kobo/internal/config"
	"kobo/internal/handlers"
	"kobo/internal/metrics"
	"kobo/internal/middleware"
	"kobo/internal/repositories"
	"kobo/internal/services/auth"
	"kobo/internal/services/exchange"
	"kobo/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB, log *logrus.Logger) {
	// Repositories
	walletRepo := repositories.NewWalletRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	userRepo := repositories.NewUserRepository(db)

	collector := metrics.NewPrometheusCollector()

	// Services
	walletConfig := wallet.Config{
		BaseCurrency:        config.BaseCurrency(),
		SupportedCurrencies: config.SupportedCurrencies(),
	}
	walletService := wallet.NewService(
		walletRepo,
		transactionRepo,
		repositories.CacheService,
		walletConfig,
		collector,
		log,
	)

	rateProvider := exchange.NewHTTPProvider(
		config.GetEnv("EXCHANGE_RATE_API", "https://v6.exchangerate-api.com/v6/demo/latest/NGN"),
	)
	rateCache := exchange.NewRateCache(
		rateProvider,
		walletConfig.BaseCurrency,
		walletConfig.SupportedCurrencies,
		collector,
		log,
	)
	exchangeService := exchange.NewService(
		walletRepo,
		repositories.CacheService,
		rateCache,
		walletConfig.BaseCurrency,
		collector,
		log,
	)

	jwtSecret := config.GetEnv("JWT_SECRET", "kobo-dev-secret")
	authService := auth.NewService(userRepo, walletService, jwtSecret, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	walletHandler := handlers.NewWalletHandler(walletService)
	exchangeHandler := handlers.NewExchangeHandler(exchangeService)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	// Public routes
	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/verify", authHandler.Verify)
	api.Post("/auth/login", authHandler.Login)

	// Authenticated routes
	authenticated := api.Use(authMiddleware.Handler)
	authenticated.Post("/auth/logout", authHandler.Logout)

	authenticated.Get("/wallets", walletHandler.GetWallets)
	authenticated.Get("/wallets/:currency/balance", walletHandler.GetBalance)
	authenticated.Post("/wallets/fund", walletHandler.Fund)
	authenticated.Get("/transactions", walletHandler.GetTransactions)

	authenticated.Get("/exchange/rates", exchangeHandler.GetRates)
	authenticated.Post("/exchange/convert", exchangeHandler.Convert)
}
