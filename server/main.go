package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/financeai/backoffice/auth"
	"github.com/financeai/backoffice/gateway"
	"github.com/financeai/backoffice/services/licenses"
	"github.com/financeai/backoffice/services/notifications"
	"github.com/financeai/backoffice/services/person"
	"github.com/financeai/backoffice/services/tenants"
	"github.com/financeai/backoffice/services/users"
	"github.com/financeai/backoffice/shared/config"
	"github.com/financeai/backoffice/shared/middleware"
	"github.com/financeai/backoffice/shared/models"
	"github.com/financeai/backoffice/shared/utils"
	"github.com/financeai/backoffice/tenant"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	dsn, err := config.MustGetEnv("DATABASE_URL")
	if err != nil {
		log.Fatal(err)
	}
	redisAddr, err := config.MustGetEnv("REDIS_ADDR")
	if err != nil {
		log.Fatal(err)
	}

	// Initialize Redis for tenant persistence and the realtime feed
	if err := utils.InitRedis(redisAddr); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer utils.CloseRedis()

	// Initialize database
	db, err := config.ConnectDatabase(dsn)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Kafka is optional; without a broker, events stay in-process
	var producer *gateway.ChangeEventProducer
	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		producer = gateway.NewChangeEventProducer(broker)
		defer producer.Close()
	}

	feed := gateway.NewRedisFeed(utils.GetRedisClient())
	gw := gateway.New(db, feed, producer)

	resolver := tenant.NewResolver(
		tenant.GatewayLookup{Gateway: gw},
		utils.TenantIDStore{},
		gw,
	)

	provider, err := auth.NewCognitoProvider(
		os.Getenv("AWS_REGION"),
		os.Getenv("COGNITO_CLIENT_ID"),
		os.Getenv("COGNITO_CLIENT_SECRET"),
		db,
		resolver,
	)
	if err != nil {
		log.Fatal("Failed to initialize auth provider:", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(
		os.Getenv("AWS_REGION"),
		os.Getenv("COGNITO_USER_POOL_ID"),
		db,
	)

	licenseService := licenses.NewService(gw, resolver)
	personService := person.NewService(os.Getenv("CNPJ_API_URL"))
	notificationService := notifications.NewService(gw)
	userService := users.NewService(gw, provider, resolver, notificationService)
	tenantService := tenants.NewService(gw)

	// Initialize Gin router
	router := gin.Default()
	router.Use(corsMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "API Finance SaaS"})
	})
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Back-office API is healthy", nil)
	})

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signin", handleSignIn(provider))
			authGroup.POST("/signup", handleSignUp(provider))
			authGroup.POST("/signout", handleSignOut(provider))
			authGroup.POST("/reset-password", handleResetPassword(provider))
			authGroup.POST("/change-password", handleChangePassword(provider))
			authGroup.GET("/me", handleGetMe(provider))
		}

		lic := api.Group("/licenses")
		lic.Use(authMiddleware.RequireAuth())
		{
			lic.POST("", handleCreateLicense(licenseService))
			lic.GET("", handleListLicenses(licenseService))
			lic.GET("/:id", handleGetLicense(licenseService))
			lic.PUT("/:id", handleUpdateLicense(licenseService))
			lic.DELETE("/:id", handleDeleteLicense(licenseService))
		}

		usr := api.Group("/users")
		usr.Use(authMiddleware.RequireAuth())
		{
			usr.GET("", handleListUsers(userService))
			usr.GET("/:id", handleGetUser(userService))
			usr.POST("", authMiddleware.RequireRole(models.RoleAdmin), handleCreateUser(userService))
			usr.PUT("/:id", authMiddleware.RequireRole(models.RoleAdmin), handleUpdateUser(userService))
		}

		tnt := api.Group("/tenants")
		tnt.Use(authMiddleware.RequireAuth())
		{
			tnt.POST("", authMiddleware.RequireRole(models.RoleAdmin), handleCreateFullTenant(tenantService))
			tnt.GET("", authMiddleware.RequireRole(models.RoleAdmin), handleListTenants(tenantService))
			tnt.GET("/:id", handleGetTenant(tenantService))
		}

		ntf := api.Group("/notifications")
		ntf.Use(authMiddleware.RequireAuth())
		{
			ntf.GET("", handleListNotifications(notificationService))
			ntf.PUT("/:id/read", handleMarkNotificationRead(notificationService))
			ntf.DELETE("/:id", handleDeleteNotification(notificationService))
		}

		api.GET("/person/cnpj/:cnpj", handleLookupCNPJ(personService))
	}

	// Start server
	port := config.GetEnv("PORT", "3001")
	logrus.Infof("Back-office API starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// corsMiddleware is permissive: the API sits behind a trusted front end.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
