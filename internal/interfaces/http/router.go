package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/auth"
	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/application/production"
	"github.com/jhoicas/Kardex-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	MaterialUC   *usecase.MaterialUseCase
	Engine       *appkardex.Engine
	Reporter     *appkardex.Reporter
	Production   *production.Service
	PDF          appkardex.StockCardPDFGenerator
	LookbackDays int
	JWTSecret    string
}

// Router registra las rutas de la API. Salvo el login, todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	authHandler := NewAuthHandler(deps.AuthUC)
	app.Post("/api/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(RoleAdmin, RoleWarehouse, RoleProduction)
	warehouse := RequireRole(RoleAdmin, RoleWarehouse)
	admin := RequireRole(RoleAdmin)
	planning := RequireRole(RoleAdmin, RoleProduction)

	api.Post("/auth/register", admin, authHandler.Register)

	materialHandler := NewMaterialHandler(deps.MaterialUC)
	kardexHandler := NewKardexHandler(deps.Engine, deps.Reporter, deps.PDF, deps.LookbackDays)
	productionHandler := NewProductionHandler(deps.Production)

	// Catálogo
	materials := api.Group("/materials")
	materials.Get("/", anyRole, materialHandler.List)
	materials.Post("/", admin, materialHandler.Create)
	materials.Get("/:id", anyRole, materialHandler.GetByID)
	materials.Put("/:id", admin, materialHandler.Update)
	materials.Delete("/:id", admin, materialHandler.Deactivate)

	// Movimientos y reportes por materia prima
	materials.Post("/:id/entries", warehouse, kardexHandler.RegisterEntry)
	materials.Post("/:id/exits", warehouse, kardexHandler.RegisterExit)
	materials.Post("/:id/withdrawals", warehouse, kardexHandler.RegisterWithdrawal)
	materials.Post("/:id/reconcile", admin, kardexHandler.Reconcile)
	materials.Get("/:id/balance", anyRole, kardexHandler.Balance)
	materials.Get("/:id/forecast", anyRole, kardexHandler.Forecast)
	materials.Get("/:id/movements", anyRole, kardexHandler.Movements)
	materials.Get("/:id/kardex", anyRole, kardexHandler.StockCard)
	materials.Get("/:id/kardex/pdf", anyRole, kardexHandler.StockCardPDF)
	materials.Get("/:id/lots", anyRole, kardexHandler.Lots)

	api.Get("/kardex/alerts", anyRole, kardexHandler.Alerts)
	api.Post("/purchases", warehouse, kardexHandler.RegisterPurchase)

	// Producción
	products := api.Group("/products")
	products.Get("/:id/bom", anyRole, productionHandler.GetBOM)
	products.Put("/:id/bom", planning, productionHandler.SetBOM)

	orders := api.Group("/production-orders")
	orders.Post("/", planning, productionHandler.CreateOrder)
	orders.Get("/:id", anyRole, productionHandler.GetOrder)
	orders.Get("/:id/estimate", anyRole, productionHandler.EstimateOrder)
	orders.Post("/:id/process", planning, productionHandler.ProcessOrder)
}
