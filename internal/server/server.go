package server

import (
	"net/http"
	"reflect"
	"strings"

	_ "erpconsole/api/swagger" // swagger docs
	"erpconsole/internal/config"
	"erpconsole/internal/handler"
	"erpconsole/internal/middleware"
	"erpconsole/internal/repository"
	"erpconsole/internal/service"
	"erpconsole/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// APIPrefix is the base path of every versioned route.
const APIPrefix = "/api/v1"

// Server bundles the router with the services main needs at startup.
type Server struct {
	Router *gin.Engine
	Users  service.UserService
	Hub    *websocket.Hub
}

// New wires repositories, services and handlers (Repository -> Service -> Handler)
// and returns the configured router. The caller runs hub.Run.
func New(cfg *config.Server, db *gorm.DB) *Server {
	useJSONFieldNames()

	hub := websocket.NewHub()
	txManager := repository.NewTransactionManager(db)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, tokenRepo, auditService, txManager, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	userService := service.NewUserService(userRepo, tokenRepo, auditService, hub, txManager)
	customerService := service.NewCustomerService(customerRepo, auditService, hub)
	productService := service.NewProductService(productRepo, auditService, hub)
	orderService := service.NewOrderService(orderRepo, customerRepo, productRepo, txManager, auditService, hub)
	invoiceService := service.NewInvoiceService(invoiceRepo, orderRepo, customerRepo, productRepo, txManager, auditService, hub)
	paymentService := service.NewPaymentService(paymentRepo, invoiceRepo, customerRepo, txManager, auditService, hub)

	auth := middleware.NewAuth(authService, userRepo)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	}
	router.GET("/health", health)

	api := router.Group(APIPrefix)
	api.GET("/health", health)
	api.GET("/ws", auth.Authenticate(), func(c *gin.Context) {
		websocket.ServeWs(hub, c, middleware.CurrentUserID(c))
	})

	handler.NewAuthHandler(authService, auth).RegisterRoutes(api)
	handler.NewUserHandler(userService, auth).RegisterRoutes(api)
	handler.NewCustomerHandler(customerService, auth).RegisterRoutes(api)
	handler.NewProductHandler(productService, auth).RegisterRoutes(api)
	handler.NewOrderHandler(orderService, auth).RegisterRoutes(api)
	handler.NewInvoiceHandler(invoiceService, auth).RegisterRoutes(api)
	handler.NewPaymentHandler(paymentService, auth).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, auth).RegisterRoutes(api)

	return &Server{Router: router, Users: userService, Hub: hub}
}

// useJSONFieldNames makes binding errors report json field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
