package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/services"
)

// Register mounts every route on app. auth guards everything except the
// health check, ping and the internal webhook.
func Register(app *fiber.App, svc LedgerService, exporter *services.Exporter, categorizer *services.Categorizer, auth fiber.Handler) {
	ledgerHandler := NewLedgerHandler(svc)
	categoryHandler := NewCategoryHandler(categorizer)
	importHandler := NewImportHandler(svc, services.NewParser(categorizer))
	transactionHandler := NewTransactionHandler(svc)
	balanceHandler := NewBalanceHandler(svc)
	summaryHandler := NewSummaryHandler(svc)
	chartsHandler := NewChartsHandler(svc)
	exportHandler := NewExportHandler(svc, exporter)
	usersHandler := NewUsersHandler(svc)

	// Health check endpoint (public)
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "trackmoney-api",
		})
	})

	v1 := app.Group("/v1")

	// Public routes
	v1.Get("/ping", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	v1.Get("/categories", ledgerHandler.GetCategories)
	v1.Get("/categories/suggest", categoryHandler.SuggestCategory)

	// Internal routes (webhook callbacks - should be secured with webhook secret in production)
	internal := v1.Group("/internal")
	internal.Post("/users", usersHandler.CreateUser)

	// Protected routes (require authentication)
	protected := v1.Group("", auth)

	protected.Post("/session", usersHandler.StartSession)
	protected.Delete("/session", usersHandler.EndSession)
	protected.Get("/user", usersHandler.GetUser)

	protected.Get("/ledger", ledgerHandler.GetLedger)
	protected.Get("/summary", summaryHandler.GetSummary)

	protected.Get("/transactions", transactionHandler.GetTransactions)
	protected.Post("/transactions", transactionHandler.AddTransaction)
	protected.Post("/transactions/import", importHandler.Import)
	protected.Delete("/transactions/:id", transactionHandler.DeleteTransaction)

	protected.Put("/balances/:kind", balanceHandler.SetBalance)
	protected.Delete("/balances/:kind", balanceHandler.ResetBalance)

	protected.Get("/charts", chartsHandler.GetCharts)
	protected.Post("/charts/visibility", chartsHandler.SetVisibility)

	protected.Get("/export", exportHandler.Export)
}
