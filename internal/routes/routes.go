package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"car-inventory-api/internal/handlers"
	"car-inventory-api/internal/metrics"
	"car-inventory-api/internal/middleware"
	"car-inventory-api/internal/repository"
)

// NewRouter builds the gin engine serving the car REST API, health and
// metrics endpoints. A nil m gets a fresh metrics registry.
func NewRouter(store repository.CarStore, logger *zap.Logger, m *metrics.HTTPMetrics) *gin.Engine {
	if m == nil {
		m = metrics.NewHTTPMetrics()
	}

	router := gin.New()
	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(m))

	SetupRoutes(router, handlers.NewCarHandler(store, logger), handlers.NewHealthHandler())
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router
}

// SetupRoutes registers the car and health endpoints.
//
// PUT and DELETE are also bound on the collection path so a request without
// an id gets a 400 rather than a bare 404.
func SetupRoutes(router *gin.Engine, carHandler *handlers.CarHandler, healthHandler *handlers.HealthHandler) {
	api := router.Group("/api")
	{
		cars := api.Group("/cars")
		cars.GET("", carHandler.ListCars)
		cars.POST("", carHandler.CreateCar)
		cars.PUT("", carHandler.UpdateCar)
		cars.DELETE("", carHandler.DeleteCar)
		cars.GET("/:id", carHandler.GetCar)
		cars.PUT("/:id", carHandler.UpdateCar)
		cars.DELETE("/:id", carHandler.DeleteCar)

		api.GET("/health", healthHandler.HealthCheck)
	}
}
