package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Ashisharjun12/devfinder-final/internal/apperr"
	"github.com/Ashisharjun12/devfinder-final/internal/domain"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/oauth"
	"github.com/Ashisharjun12/devfinder-final/internal/project"
	"github.com/Ashisharjun12/devfinder-final/internal/ratelimit"
	"github.com/Ashisharjun12/devfinder-final/internal/realtime"
	"github.com/Ashisharjun12/devfinder-final/internal/repo"
)

// UserStore is the user side of the repository used by the auth and profile endpoints.
type UserStore interface {
	Ping(ctx context.Context) error
	UpsertOAuthUser(ctx context.Context, email, name, image string) (*domain.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p repo.UserProfilePatch) (*domain.User, error)
}

type Handler struct {
	Projects     *project.Service
	Users        UserStore
	Google       oauth.Provider
	Hub          *realtime.Hub
	Limiter      ratelimit.Limiter
	JWTSecret    string
	SessionTTL   time.Duration
	CookieName   string
	CookieSecure bool
	// allowed browser origins for CORS; empty or "*" allows any
	AllowedOrigins []string
	// wraps the router with Datadog request spans when set
	TraceService string
}

func NewHandler(svc *project.Service, users UserStore, jwtSecret string, sessionTTL time.Duration) *Handler {
	return &Handler{
		Projects:   svc,
		Users:      users,
		JWTSecret:  jwtSecret,
		SessionTTL: sessionTTL,
		CookieName: "devfinder_session",
		Hub:        realtime.NewHub(),
	}
}

// writeError renders err as {"error": msg}. Unexpected errors are logged with the
// request id and shown to the client as a generic message.
func writeError(c *gin.Context, err error) {
	status, msg := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request.Context(),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("route", c.FullPath()),
		).Error("request failed", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// principal is set by RequireAuth.
func principal(c *gin.Context) project.Principal {
	p, _ := c.Get(principalKey)
	pr, _ := p.(project.Principal)
	return pr
}

// Healthz godoc
// @Summary Liveness and database check
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if h.Users != nil {
		if err := h.Users.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
