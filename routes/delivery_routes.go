package routes

import (
	handlers "floreria/internal/handlers/shared"
	"floreria/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupDeliveryRoutes(v1 *gin.RouterGroup, deliveryHandler *handlers.DeliveryHandler, jwtSecret string) {
	delivery := v1.Group("/delivery")
	{
		delivery.GET("/fee", deliveryHandler.CalculateFee)
		delivery.GET("/slots", deliveryHandler.GetAvailableSlots)
		delivery.GET("/types", deliveryHandler.ListDeliveryTypes)
		delivery.GET("/resolve", deliveryHandler.ResolveCommune)

		communes := delivery.Group("/communes")
		{
			communes.GET("", deliveryHandler.ListCommunes)
			communes.GET("/:name", deliveryHandler.GetCommune)
		}

		quotes := delivery.Group("/quotes")
		{
			quotes.POST("", deliveryHandler.CreateQuote)
			quotes.GET("/:id", deliveryHandler.GetQuote)
		}
	}

	admin := v1.Group("/admin/delivery")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/zones", deliveryHandler.GetZonesSummary)
		admin.GET("/quotes", deliveryHandler.ListQuotes)
	}
}
