package routes

import (
	"github.com/gofiber/fiber/v2"

	"loanrisk-backend/controllers"
	"loanrisk-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", controllers.Health)

	// Protected endpoints (bearer token on every call)
	protected := api.Group("")
	protected.Use(middlewares.Authenticate())

	// Idempotency guard for mutating verbs
	protected.Use(middlewares.Idempotency())

	// Analyses
	protected.Post("/analysis/process-text", controllers.ProcessText)
	protected.Post("/analysis", controllers.CreateAnalysis)
	protected.Get("/analysis", controllers.GetAnalyses)
	protected.Get("/analysis/:id", controllers.GetAnalysis)
	protected.Delete("/analysis/:id", controllers.DeleteAnalysis)
	protected.Put("/analysis/:id/status", controllers.UpdateAnalysisStatus)
}
