package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC       *usecase.ProductUseCase
	StockMovementUC *usecase.StockMovementUseCase
	Kardex          *inventory.KardexUseCase
	Replenishment   *inventory.ReplenishmentUseCase
	AuthUC          *auth.AuthUseCase
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	adminOnly := RequireRole(entity.RoleAdmin)

	protected.Post("/users", adminOnly, authHandler.CreateUser)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Kardex, deps.Replenishment)
	products.Get("/", productHandler.List)
	products.Get("/replenishment", writers, productHandler.Replenishment)
	products.Get("/:id/kardex.pdf", productHandler.KardexPDF)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", writers, productHandler.Create)
	products.Put("/:id", writers, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	// Stock movements: la ruta fija va antes de /:id
	movements := protected.Group("/stock-movements")
	movementHandler := NewStockMovementHandler(deps.StockMovementUC)
	movements.Get("/reconciliation", writers, movementHandler.Reconciliation)
	movements.Get("/", movementHandler.List)
	movements.Get("/:id", movementHandler.GetByID)
	movements.Post("/", writers, movementHandler.Create)
	movements.Put("/:id", writers, movementHandler.Update)
	movements.Delete("/:id", writers, movementHandler.Delete)
}
