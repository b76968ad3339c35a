package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/franciscosanchezn/bonos-api/docs" // Registers the swagger spec
	"github.com/franciscosanchezn/bonos-api/internal/auth"
	"github.com/franciscosanchezn/bonos-api/internal/cache"
	"github.com/franciscosanchezn/bonos-api/internal/config"
	"github.com/franciscosanchezn/bonos-api/internal/controllers"
	"github.com/franciscosanchezn/bonos-api/internal/middleware"
	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

// jsonBodyLimit caps every JSON payload; uploads get their own limit
const jsonBodyLimit = 1 << 20

// Options are the dependencies New wires together
type Options struct {
	Config *config.Config
	DB     *gorm.DB
	// Cache stores offer listings; nil disables caching
	Cache cache.Store
}

// Server holds the HTTP engine and the services behind it
type Server struct {
	Engine   *gin.Engine
	Sessions *auth.SessionManager
	Users    services.UserService
	Offers   services.OfferService
	Clients  services.ClientService
	OAuth    *auth.OAuthService

	db *gorm.DB
}

// New builds services, controllers and routes
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	store := opts.Cache
	if store == nil {
		store = cache.Noop{}
	}

	sessions := auth.NewSessionManager(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	users := services.NewUserService(opts.DB)
	s := &Server{
		Sessions: sessions,
		Users:    users,
		Offers:   services.NewOfferService(opts.DB, services.WithCache(store, time.Duration(cfg.CacheTTLSeconds)*time.Second)),
		Clients:  services.NewClientService(opts.DB),
		OAuth:    auth.NewOAuthService(opts.DB, sessions, users, time.Duration(cfg.OAuthTokenMinutes)*time.Minute),
		db:       opts.DB,
	}

	templates, err := controllers.LoadTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics(), middleware.AccessLog())
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.KeyRequestID},
			ExposeHeaders:    []string{middleware.KeyRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.SetHTMLTemplate(templates)

	s.Engine = router
	s.setupRoutes(cfg)
	return s, nil
}

// setupRoutes defines the routes for the Gin router
func (s *Server) setupRoutes(cfg *config.Config) {
	router := s.Engine
	gate := middleware.NewGate(auth.NewAuthenticator(s.Sessions, s.Users, auth.NewGormTokenStore(s.db)), cfg.SecureCookies)

	offerController := controllers.NewOfferController(s.Offers)
	authController := controllers.NewAuthController(services.NewAuthService(s.Users), s.Users, s.Sessions, cfg.SecureCookies)
	clientController := controllers.NewClientController(s.Clients)
	uploadController := controllers.NewUploadController(cfg.UploadDir, int64(cfg.MaxUploadBytes), "/images")
	pageController := controllers.NewPageController(s.Offers)

	// Ops endpoints
	router.GET("/health", s.healthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.Static("/images", cfg.UploadDir)

	// OAuth2 token endpoint for machine clients
	router.POST("/oauth/token", middleware.MaxBodyBytes(jsonBodyLimit), s.OAuth.HandleToken)

	v1 := router.Group("/api/v1")
	{
		authAPI := v1.Group("/auth", middleware.MaxBodyBytes(jsonBodyLimit))
		{
			authAPI.POST("/login", middleware.LoginRateLimit(middleware.NewIPRateLimiter(cfg.LoginRatePerMinute)), authController.Login)
			authAPI.POST("/signup", authController.Signup)
			authAPI.POST("/logout", authController.Logout)
			authAPI.GET("/me", gate.RequireAPI(""), authController.Me)
		}

		publicAPI := v1.Group("/public")
		{
			publicAPI.GET("/offers", offerController.ListOffers)
			publicAPI.GET("/offers/:id", offerController.GetOffer)
		}

		// Every admin route passes the API gate before any handler runs
		adminAPI := v1.Group("/protected/admin", gate.RequireAPI(models.RoleAdmin))
		{
			read := gate.RequireScope(models.ScopeOffersRead)
			write := gate.RequireScope(models.ScopeOffersWrite)
			manageClients := gate.RequireScope(models.ScopeClientsManage)

			// Multipart bodies get the upload limit plus room for form framing
			adminAPI.POST("/upload", write, middleware.MaxBodyBytes(int64(cfg.MaxUploadBytes)+64<<10), uploadController.Upload)

			adminJSON := adminAPI.Group("", middleware.MaxBodyBytes(jsonBodyLimit))
			adminJSON.GET("/offers", read, offerController.AdminListOffers)
			adminJSON.GET("/offers/:id", read, offerController.AdminGetOffer)
			adminJSON.POST("/offers", write, offerController.CreateOffer)
			adminJSON.PUT("/offers/:id", write, offerController.UpdateOffer)
			adminJSON.DELETE("/offers/:id", write, offerController.DeleteOffer)

			// Client tokens never hold clients:manage, so only logged-in admins reach these
			adminJSON.GET("/clients", manageClients, clientController.ListClients)
			adminJSON.POST("/clients", manageClients, clientController.CreateClient)
			adminJSON.DELETE("/clients/:id", manageClients, clientController.DeleteClient)
		}
	}

	// Server rendered pages
	pages := router.Group("/", gate.OptionalSession())
	{
		pages.GET("/", pageController.Storefront)
		pages.GET("/offers/:id", pageController.OfferDetail)
		pages.GET("/login", pageController.Login)
		pages.GET("/sign-up", pageController.SignUp)
	}
	adminPages := router.Group("/admin", gate.RequirePage(models.RoleAdmin))
	{
		adminPages.GET("", pageController.AdminDashboard)
		adminPages.GET("/offers/create", pageController.AdminCreateOffer)
		adminPages.GET("/offers/edit/:id", pageController.AdminEditOffer)
	}
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (s *Server) healthCheckHandler(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "bonos-api",
	})
}
