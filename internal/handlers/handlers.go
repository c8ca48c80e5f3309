package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"imageserver/internal/apperr"
	"imageserver/internal/catalog"
	"imageserver/internal/config"
	"imageserver/internal/service"
	"imageserver/internal/validation"
)

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	db        *pgxpool.Pool
	cache     *redis.Client
	upload    *service.UploadService
	confirm   *service.ConfirmService
	sequences *service.SequenceService
	cleanup   *service.CleanupService
	registry  *catalog.Registry
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	db *pgxpool.Pool,
	cache *redis.Client,
	upload *service.UploadService,
	confirm *service.ConfirmService,
	sequences *service.SequenceService,
	cleanup *service.CleanupService,
	registry *catalog.Registry,
) HandlerSet {
	return HandlerSet{
		log:       log,
		cfg:       cfg,
		db:        db,
		cache:     cache,
		upload:    upload,
		confirm:   confirm,
		sequences: sequences,
		cleanup:   cleanup,
		registry:  registry,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/schedule/cleanup", h.TriggerCleanup)

	v1 := router.Group("/v1")
	{
		images := v1.Group("/images")
		images.POST("", h.UploadImage)
		images.POST("/batch", h.UploadImages)
		images.POST("/confirm", h.ConfirmImages)
		images.POST("/confirm/:referenceId", h.ConfirmImage)
		images.GET("/:id", h.GetImage)

		v1.GET("/references/:referenceId/images", h.ListReferenceImages)

		cat := v1.Group("/catalog")
		cat.GET("/reference-types", h.ListReferenceTypes)
		cat.GET("/extensions", h.ListExtensions)
	}
}

// fail maps a service error onto the HTTP boundary. Anything without a
// stable code is an internal error the client has no business seeing.
func (h HandlerSet) fail(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		c.JSON(appErr.Status, gin.H{"error": appErr.Code, "message": appErr.Message})
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "internal error"})
}

func (h HandlerSet) invalid(c *gin.Context, result validation.Result) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      "VALIDATION_FAILED",
		"violations": result.Violations,
	})
}
