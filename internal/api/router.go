package api

import (
	"github.com/gin-gonic/gin"
	"github.com/lojaviva/checkout/internal/api/handler"
)

func SetupRouter(checkoutHandler *handler.CheckoutHandler, webhookHandler *handler.WebhookHandler) *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "up"})
	})

	v1 := r.Group("/v1")
	{
		checkout := v1.Group("/checkout")
		{
			checkout.POST("/pix", checkoutHandler.CreatePixOrder)
		}

		orders := v1.Group("/orders")
		{
			orders.GET("/:reference", checkoutHandler.GetOrder)
		}

		// One route per payment gateway; auth conventions differ per vendor.
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/card", webhookHandler.HandleCard)
			webhooks.POST("/bank", webhookHandler.HandleBank)
			webhooks.POST("/charges", webhookHandler.HandleCharges)
		}
	}

	return r
}
