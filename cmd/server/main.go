package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	docs "github.com/Ashisharjun12/devfinder-final/docs"
	"github.com/Ashisharjun12/devfinder-final/internal/authz"
	"github.com/Ashisharjun12/devfinder-final/internal/config"
	"github.com/Ashisharjun12/devfinder-final/internal/events"
	api "github.com/Ashisharjun12/devfinder-final/internal/http"
	"github.com/Ashisharjun12/devfinder-final/internal/log"
	"github.com/Ashisharjun12/devfinder-final/internal/metrics"
	"github.com/Ashisharjun12/devfinder-final/internal/oauth"
	"github.com/Ashisharjun12/devfinder-final/internal/project"
	"github.com/Ashisharjun12/devfinder-final/internal/queue"
	"github.com/Ashisharjun12/devfinder-final/internal/ratelimit"
	"github.com/Ashisharjun12/devfinder-final/internal/realtime"
	"github.com/Ashisharjun12/devfinder-final/internal/repo"
)

type storage interface {
	project.Store
	project.Users
	api.UserStore
}

// @title DevFinder API
// @version 0.1.0
// @description Project listings and connection requests between developers.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey SessionAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	lg, err := log.Init(cfg.Production)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.CheckProduction(); err != nil {
		lg.Fatal("refusing to start", zap.Error(err))
	}

	if cfg.DDEnabled {
		tracer.Start(tracer.WithService(cfg.DDService))
		defer tracer.Stop()
	}
	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store storage
	if cfg.Store == "memory" {
		lg.Warn("using in-memory store; data is lost on restart")
		store = repo.NewMemory()
	} else {
		ms, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			lg.Fatal("mongo connect", zap.Error(err))
		}
		defer ms.Close(context.Background())
		if err := ms.EnsureIndexes(ctx); err != nil {
			lg.Fatal("mongo indexes", zap.Error(err))
		}
		store = ms
	}

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		if pub, err = queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange); err != nil {
			lg.Fatal("rabbit connect", zap.Error(err))
		}
	}
	defer pub.Close()

	hub := realtime.NewHub()
	enf, err := authz.NewEnforcer()
	if err != nil {
		lg.Fatal("authz", zap.Error(err))
	}
	svc := project.NewService(store, store, enf,
		project.WithNotifier(events.NewDispatcher(pub, cfg.RabbitExchange, hub)),
		project.WithStrictStage(cfg.StageStrict),
	)

	h := api.NewHandler(svc, store, cfg.JWTSecret, cfg.SessionTTL)
	h.Hub = hub
	h.CookieName = cfg.CookieName
	h.CookieSecure = cfg.CookieSecure
	h.AllowedOrigins = cfg.AllowedOrigins
	if cfg.DDEnabled {
		h.TraceService = cfg.DDService
	}
	if cfg.GoogleClientID != "" {
		h.Google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.OAuthStateSecret)
	} else {
		lg.Warn("GOOGLE_CLIENT_ID not set; sign-in is disabled")
	}

	if cfg.RedisAddr != "" {
		rds, err := repo.NewRedis(ctx, cfg.RedisAddr)
		defer rds.Close()
		if err != nil {
			lg.Warn("redis unreachable; rate limiting fails open until it is back", zap.Error(err))
		}
		h.Limiter = ratelimit.NewRedis(rds.C, cfg.RateLimitPerMin)
	} else {
		mem := ratelimit.NewMemoryStore(cfg.RateLimitPerMin, cfg.RateLimitPerMin, ratelimit.WithIdleTTL(cfg.RateLimitIdle))
		defer mem.Stop()
		h.Limiter = mem
	}

	docs.SwaggerInfo.BasePath = "/"

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		// no WriteTimeout: event streams stay open
	}

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()
	lg.Info("devfinder api listening", zap.String("port", cfg.Port), zap.String("store", cfg.Store))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		lg.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server error", zap.Error(err))
		}
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		lg.Warn("graceful shutdown", zap.Error(err))
	}
}
