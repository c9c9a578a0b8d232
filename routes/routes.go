package routes

import (
	"stocksignals/handlers"
	"stocksignals/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, insights *handlers.InsightsHandler, health map[string]handlers.HealthCheck) {
	app.Get("/version", handlers.HandleVersion)
	app.Get("/health", handlers.HandleHealth(health))

	api := app.Group("/api/v1")

	// --- Authentication Routes ---
	auth := api.Group("/auth")
	auth.Post("/login", handlers.HandleLogin)

	// --- Merchant Routes ---
	merchant := api.Group("/merchant", middleware.JWTMiddleware, middleware.MerchantRequired)

	// Every shop route checks ownership before it runs.
	shop := merchant.Group("/shops/:shopId")
	shop.Get("/insights", insights.RequireShopOwner, insights.HandleGetInsights)
	shop.Get("/velocity", insights.RequireShopOwner, insights.HandleGetVelocity)
	shop.Get("/trend", insights.RequireShopOwner, insights.HandleGetTrend)
	shop.Post("/snapshots", insights.RequireShopOwner, insights.HandleCaptureSnapshot)
	shop.Post("/actions/explain", insights.RequireShopOwner, insights.HandleExplainActions)
}
