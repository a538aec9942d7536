package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	_ "github.com/Ashisharjun12/devfinder-final/docs"
	"github.com/Ashisharjun12/devfinder-final/internal/metrics"
)

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDKey},
		ExposeHeaders:    []string{requestIDKey},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// credentials forbid a literal "*", so reflect the caller's origin
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if h.TraceService != "" {
		r.Use(gintrace.Middleware(h.TraceService))
	}
	r.Use(RequestID(), Logger(), Metrics())
	r.Use(cors.New(corsConfig(h.AllowedOrigins)))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := r.Group("/auth")
	{
		auth.GET("/google/login", h.GoogleLogin)
		auth.GET("/google/callback", RateLimit(h.Limiter), h.GoogleCallback)
		auth.POST("/logout", h.Logout)
	}

	r.GET("/projects", h.ListProjects)
	r.GET("/projects/:id", h.GetProject)

	authed := r.Group("/", RequireAuth(h.JWTSecret, h.CookieName))
	limited := authed.Group("/", RateLimit(h.Limiter))
	{
		authed.GET("/projects/:id/connect", h.GetConnection)
		authed.GET("/projects/:id/events", h.ProjectEvents)
		authed.GET("/me", h.Me)
		authed.GET("/users/:id", h.GetUser)

		limited.POST("/projects", h.CreateProject)
		limited.PUT("/projects/:id", h.UpdateProject)
		limited.DELETE("/projects/:id", h.DeleteProject)
		limited.POST("/projects/:id/connect", h.RequestConnection)
		limited.PUT("/projects/:id/connect", h.ResolveConnection)
		limited.PUT("/me", h.UpdateMe)
	}
	return r
}
