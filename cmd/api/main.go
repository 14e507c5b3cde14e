package main

import (
	"context"
	"log"
	"os"

	_ "autoflow/api/swagger" // swagger docs
	"autoflow/internal/database"
	"autoflow/internal/handler"
	"autoflow/internal/middleware"
	"autoflow/internal/repository"
	"autoflow/internal/service"
	"autoflow/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           AutoFlow Fleet API
// @version         1.0
// @description     Fleet-management back office: vehicles, rentals, maintenance, obligations, alerts and audit.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "autoflow"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	if err := database.SeedAdmin(context.Background(), db); err != nil {
		log.Fatalf("Admin seed failed: %v", err)
	}

	appLog := logrus.New()
	appLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	rentalRepo := repository.NewRentalRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	planRepo := repository.NewPlanRepository(db)
	obligationRepo := repository.NewObligationRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	auditService := service.NewAuditService(auditRepo, appLog)
	vehicleService := service.NewVehicleService(vehicleRepo, rentalRepo, maintenanceRepo, planRepo, obligationRepo, alertRepo, txManager, auditService)
	rentalService := service.NewRentalService(rentalRepo, vehicleRepo, vehicleService, txManager, auditService)
	planService := service.NewPlanService(planRepo, vehicleRepo, auditService)
	maintenanceService := service.NewMaintenanceService(maintenanceRepo, vehicleRepo, planService, auditService)
	obligationService := service.NewObligationService(obligationRepo, vehicleRepo, auditService)
	alertService := service.NewAlertService(alertRepo, vehicleRepo, obligationRepo, wsHub, appLog)
	dashboardService := service.NewDashboardService(vehicleRepo, rentalRepo, maintenanceRepo, alertRepo, alertService, appLog)
	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())

	// Initialize Handlers
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	rentalHandler := handler.NewRentalHandler(rentalService)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceService, planService)
	obligationHandler := handler.NewObligationHandler(obligationService)
	alertHandler := handler.NewAlertHandler(alertService)
	auditHandler := handler.NewAuditHandler(auditService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	userHandler := handler.NewUserHandler(userService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	vehicleHandler.RegisterRoutes(router.Group(""))
	rentalHandler.RegisterRoutes(router.Group(""))
	maintenanceHandler.RegisterRoutes(router.Group(""))
	obligationHandler.RegisterRoutes(router.Group(""))
	alertHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
