package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/config"
	"github.com/ikkim/dealer-backend/internal/app/controller"
	"github.com/ikkim/dealer-backend/internal/app/model"
	"github.com/ikkim/dealer-backend/internal/middleware"
)

type Router struct {
	authController      *controller.AuthController
	vehicleController   *controller.VehicleController
	customerController  *controller.CustomerController
	saleController      *controller.SaleController
	analyticsController *controller.AnalyticsController
	saleFeedController  *controller.SaleFeedController
	authMiddleware      *middleware.AuthMiddleware
	loginLimiter        *middleware.RateLimiter
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	vehicleController *controller.VehicleController,
	customerController *controller.CustomerController,
	saleController *controller.SaleController,
	analyticsController *controller.AnalyticsController,
	saleFeedController *controller.SaleFeedController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		vehicleController:   vehicleController,
		customerController:  customerController,
		saleController:      saleController,
		analyticsController: analyticsController,
		saleFeedController:  saleFeedController,
		authMiddleware:      authMiddleware,
		loginLimiter:        middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
		config:              cfg,
	}
}

var (
	staff    = []model.UserRole{model.RoleAdmin, model.RoleManager, model.RoleSalesperson}
	managers = []model.UserRole{model.RoleAdmin, model.RoleManager}
	admins   = []model.UserRole{model.RoleAdmin}
)

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Dealership API is running",
		})
	})

	authn := r.authMiddleware.Authenticate()
	role := r.authMiddleware.RequireRole

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.loginLimiter.Middleware(), r.authController.Login)
			auth.POST("/refresh", r.loginLimiter.Middleware(), r.authController.RefreshToken)
			auth.POST("/logout", authn, r.authController.Logout)
			auth.GET("/me", authn, r.authController.GetMe)
			auth.POST("/users", authn, role(admins...), r.authController.CreateUser)
		}

		vehicles := v1.Group("/vehicles")
		{
			// inventory browsing is public
			vehicles.GET("", r.vehicleController.ListVehicles)
			vehicles.GET("/available", r.vehicleController.ListAvailable)
			vehicles.GET("/low-mileage", r.vehicleController.ListLowMileage)
			vehicles.GET("/vin/:vin", r.vehicleController.GetVehicleByVIN)
			vehicles.GET("/:id", r.vehicleController.GetVehicle)

			vehicles.GET("/:id/sales", authn, role(staff...), r.saleController.ListByVehicle)
			vehicles.POST("", authn, role(managers...), r.vehicleController.CreateVehicle)
			vehicles.PUT("/:id", authn, role(managers...), r.vehicleController.UpdateVehicle)
			vehicles.DELETE("/:id", authn, role(admins...), r.vehicleController.DeleteVehicle)

			vehicles.PATCH("/:id/status", authn, role(staff...), r.vehicleController.UpdateStatus)
			vehicles.PATCH("/:id/reserve", authn, role(staff...), r.vehicleController.Reserve)
			vehicles.PATCH("/:id/sold", authn, role(staff...), r.vehicleController.MarkSold)
			vehicles.PATCH("/:id/available", authn, role(staff...), r.vehicleController.MakeAvailable)
			vehicles.PATCH("/:id/maintenance", authn, role(staff...), r.vehicleController.MarkForMaintenance)
		}

		customers := v1.Group("/customers", authn)
		{
			customers.GET("", role(staff...), r.customerController.ListCustomers)
			customers.GET("/:id", role(staff...), r.customerController.GetCustomer)
			customers.GET("/:id/sales", role(staff...), r.saleController.ListByCustomer)
			customers.POST("", role(staff...), r.customerController.CreateCustomer)
			customers.PUT("/:id", role(staff...), r.customerController.UpdateCustomer)
			customers.DELETE("/:id", role(admins...), r.customerController.DeleteCustomer)
			customers.PATCH("/:id/activate", role(staff...), r.customerController.ActivateCustomer)
			customers.PATCH("/:id/deactivate", role(staff...), r.customerController.DeactivateCustomer)
			customers.PATCH("/:id/credit-score", role(staff...), r.customerController.UpdateCreditScore)
		}

		sales := v1.Group("/sales", authn)
		{
			sales.GET("", role(staff...), r.saleController.ListSales)
			sales.GET("/pending", role(staff...), r.saleController.ListPending)
			sales.GET("/status-counts", role(staff...), r.saleController.CountByStatus)
			sales.GET("/:id", role(staff...), r.saleController.GetSale)
			sales.POST("", role(staff...), r.saleController.CreateSale)
			sales.PUT("/:id", role(staff...), r.saleController.UpdateSale)
			sales.POST("/:id/cancel", role(staff...), r.saleController.CancelSale)

			sales.POST("/:id/approve", role(managers...), r.saleController.ApproveSale)
			sales.POST("/:id/complete", role(managers...), r.saleController.CompleteSale)
			sales.POST("/:id/refund", role(managers...), r.saleController.RefundSale)
		}

		analytics := v1.Group("/analytics", authn, role(managers...))
		{
			analytics.GET("/revenue", r.analyticsController.GetRevenue)
			analytics.GET("/performance", r.analyticsController.GetPerformance)
			analytics.GET("/inventory", r.analyticsController.GetInventory)
			analytics.GET("/customers", r.analyticsController.GetCustomers)
			analytics.GET("/projections", r.analyticsController.GetProjections)
			analytics.GET("/export", r.analyticsController.ExportReport)
			analytics.POST("/export", r.analyticsController.UploadReport)
		}

		v1.GET("/ws/sales", authn, role(staff...), r.saleFeedController.Subscribe)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
