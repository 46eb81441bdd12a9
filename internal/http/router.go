package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wardrobeapp/wardrobe/internal/auth"
	"github.com/wardrobeapp/wardrobe/internal/config"
	"github.com/wardrobeapp/wardrobe/internal/http/handlers"
	"github.com/wardrobeapp/wardrobe/internal/http/middlewares"
	"github.com/wardrobeapp/wardrobe/internal/imaging"
	"github.com/wardrobeapp/wardrobe/internal/observability"
	"github.com/wardrobeapp/wardrobe/internal/repo/postgres"
	"github.com/wardrobeapp/wardrobe/internal/storage"
	"github.com/wardrobeapp/wardrobe/internal/tasks"
)

type matteRemover struct{}

func (matteRemover) RemoveBackground(path string) error {
	return imaging.RemoveBackground(path)
}

func NewRouter(log *slog.Logger, cfg config.Config, pool *pgxpool.Pool, files *storage.Store, prom *observability.Prom, runner *tasks.Runner) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("wardrobe-api"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(cfg.MaxUploadBytes))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	itemsRepo := postgres.NewItemsRepo(pool, prom)
	capsulesRepo := postgres.NewCapsulesRepo(pool, prom)

	jwt := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	authHandler := handlers.NewAuthHandler(usersRepo, jwt)
	itemsHandler := handlers.NewItemsHandler(itemsRepo, files, runner, matteRemover{}, cfg.SkipBackgroundRemoval())
	capsulesHandler := handlers.NewCapsulesHandler(capsulesRepo, files)
	uploadsHandler := handlers.NewUploadsHandler(files)

	// credential endpoints get a tighter per-IP budget
	limiter := middlewares.NewRateLimiter(20, time.Minute)
	limited := limiter.RateLimiterMiddleware(middlewares.KeyByIP)

	r.POST("/users/", limited, authHandler.Register)
	r.POST("/login", limited, authHandler.Login)

	r.GET("/static/uploads/:name", uploadsHandler.ServeUpload)
	r.GET("/uploads/:name", uploadsHandler.ServeUpload)

	authMW := middlewares.NewAuthMiddleware(jwt, usersRepo)
	authorized := r.Group("/", authMW.RequireAuth())

	authorized.POST("/items/", itemsHandler.CreateItem)
	authorized.GET("/items/", itemsHandler.ListItems)
	authorized.GET("/items/:id", itemsHandler.GetItem)
	authorized.PUT("/items/:id", itemsHandler.UpdateItem)
	authorized.DELETE("/items/:id", itemsHandler.DeleteItem)

	authorized.POST("/capsules/", capsulesHandler.CreateCapsule)
	authorized.GET("/capsules/", capsulesHandler.ListCapsules)
	authorized.GET("/capsules/:id", capsulesHandler.GetCapsule)
	authorized.PUT("/capsules/:id", capsulesHandler.UpdateCapsule)
	authorized.DELETE("/capsules/:id", capsulesHandler.DeleteCapsule)

	return r
}
