// main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"school-trips/controllers"
	"school-trips/logger"
	"school-trips/middleware"
	"school-trips/models"
	"school-trips/services"
	"school-trips/store"
	"school-trips/websocket"
)

func main() {
	// .env is optional; real deployments inject the environment directly
	if err := godotenv.Load(); err != nil {
		logger.Debug.Println("main: no .env file found, using process environment")
	}

	env := os.Getenv("ENV")
	logger.SetLogLevel(env)
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbFile := os.Getenv("DB_FILE")
	if dbFile == "" {
		dbFile = "./data/database.json"
	}

	st, err := store.Open(dbFile)
	if err != nil {
		log.Fatalf("Failed to open database file %s: %v", dbFile, err)
	}
	defer st.Close()

	hub := websocket.NewHub()
	go hub.Run()

	router := gin.Default()

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = "secret"
		logger.Warn.Println("main: SESSION_SECRET not set, using insecure default")
	}
	cookieStore := cookie.NewStore([]byte(sessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("schooltrips_session", cookieStore))

	rosterURL := os.Getenv("ROSTER_URL")
	rosterService := services.NewRosterService(rosterURL)

	authController := controllers.NewAuthController(st)
	syncController := controllers.NewSyncController(st, hub)
	rosterController := controllers.NewRosterController(rosterService)
	reportController := controllers.NewReportController(st)
	adminController := controllers.NewAdminController(
		st, services.NewBackupService(os.Getenv("BACKUP_BUCKET")))

	router.GET("/health", controllers.Health)

	// Public routes
	router.POST("/login", authController.Login)
	router.GET("/logout", authController.Logout)

	// Websocket endpoint; clients receive their socket id in the first frame
	router.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	// Protected routes
	api := router.Group("/api", middleware.AuthRequired)
	{
		api.GET("/db", syncController.GetDB)
		api.POST("/sync/:entity", syncController.SyncEntity)
		api.POST("/sync/:entity/bulk", syncController.SyncEntityBulk)
		api.DELETE("/sync/:entity/:id", syncController.DeleteEntity)
		api.POST("/restore",
			middleware.RoleRequired(models.RoleDireccion, models.RoleAdmin),
			syncController.Restore)

		api.GET("/proxy/me", authController.Me)
		api.GET("/proxy/users", rosterController.ProxyUsers)
		api.GET("/proxy/classes", rosterController.ProxyClasses)
		api.GET("/proxy/students", rosterController.ProxyStudents)

		api.GET("/reports/annual", reportController.Annual)
		api.GET("/reports/excursion/:id", reportController.Excursion)

		api.GET("/qrcode", controllers.GetQRCode)

		api.POST("/backup",
			middleware.RoleRequired(models.RoleDireccion, models.RoleAdmin),
			adminController.TriggerBackup)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3005"
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
