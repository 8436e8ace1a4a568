package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dogify/api/internal/config"
	"dogify/api/internal/jobs"
	"dogify/api/internal/media/imageref"
	"dogify/api/internal/middleware"
	"dogify/api/internal/repository"
	"dogify/api/internal/service"
	"dogify/api/internal/storage"
)

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	ingest *service.IngestService
	serve  *service.ServeService
	share  *service.ShareService
	images service.ImageStore
	db     *pgxpool.Pool
	cache  *redis.Client
	store  storage.ObjectStore
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	imageRepo := repository.NewImageRepository(db, cfg.Postgres.WriteTimeout)
	decoder := imageref.NewDecoder(
		&http.Client{Timeout: cfg.Image.FetchTimeout},
		cfg.Image.FetchTimeout,
		cfg.Image.MaxBytes,
	)
	orphans := jobs.NewOrphanQueue(cache)

	return HandlerSet{
		log:    log,
		cfg:    cfg,
		ingest: service.NewIngestService(decoder, store, imageRepo, orphans, cfg, log),
		serve:  service.NewServeService(imageRepo, log),
		share:  service.NewShareService(imageRepo, cache, log),
		images: imageRepo,
		db:     db,
		cache:  cache,
		store:  store,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/share/:id", h.SharePage)

	api := engine.Group("/api")
	api.GET("/healthz", h.Health)

	v1 := api.Group("/v1")
	{
		v1.POST("/images", h.SaveImage)
		v1.GET("/images", h.ServeImage)
		v1.GET("/images/:id", h.ServeImage)

		admin := v1.Group("/admin")
		admin.POST("/login", h.AdminLogin)

		protected := v1.Group("/admin")
		protected.Use(middleware.AdminAuth(h.cfg))
		protected.GET("/images", h.AdminListImages)
	}
}
