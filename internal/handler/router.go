package handler

import (
	"github.com/gin-gonic/gin"

	"vendingmachine/internal/auth"
)

// SetupRouter wires middleware and routes. mode is the gin mode.
func SetupRouter(h *Handler, tokens *auth.TokenManager, denylist auth.Denylist, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	requireAuth := AuthMiddleware(tokens, denylist)

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/register", h.Register)
			users.POST("/login", h.Login)

			authed := users.Group("", requireAuth)
			authed.GET("/me", h.Me)
			authed.POST("/deposit", h.Deposit)
			authed.POST("/reset-deposit", h.ResetDeposit)
			authed.POST("/buy", h.Buy)
			authed.GET("/transactions", h.ListTransactions)
			authed.GET("/purchases", h.ListPurchases)
			authed.GET("/purchases/:order_no", h.GetPurchase)
			authed.POST("/logout", h.Logout)
			authed.GET("", h.ListUsers)
			authed.GET("/:id", h.GetUser)
			authed.PUT("/:id", h.UpdateUser)
			authed.DELETE("/:id", h.DeleteUser)
		}

		products := api.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/:id", h.GetProduct)
			products.POST("", requireAuth, h.CreateProduct)
			products.PUT("/:id", requireAuth, h.UpdateProduct)
			products.DELETE("/:id", requireAuth, h.DeleteProduct)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
