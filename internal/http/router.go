package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-media/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-media/internal/http/middleware"
	"github.com/yungbote/neurobridge-media/internal/observability"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowOrigins   []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	AttachmentHandler *httpH.AttachmentHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Attachments (public reads)
		if cfg.AttachmentHandler != nil {
			api.GET("/attachments/:id", cfg.AttachmentHandler.GetAttachment)
			api.GET("/owners/:owner_type/:owner_id/attachments", cfg.AttachmentHandler.ListOwnerAttachments)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		} else {
			protected.Use(func(c *gin.Context) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{"message": "authentication is not configured", "code": "unauthorized"},
				})
			})
		}

		if cfg.AttachmentHandler != nil {
			protected.POST("/attachments", cfg.AttachmentHandler.UploadAttachment)
			protected.DELETE("/attachments/:id", cfg.AttachmentHandler.DeleteAttachment)
			protected.DELETE("/owners/:owner_type/:owner_id/attachments", cfg.AttachmentHandler.PurgeOwnerAttachments)
		}
	}

	return r
}
