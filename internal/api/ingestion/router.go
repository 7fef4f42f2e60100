package ingestion

import (
	"net/http"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/config"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/inventory"
	"github.com/Nidl3r/PCC-KDS-sub000/internal/store"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP engine. Requests hitting a known path with the
// wrong method get 405 with the Allow header instead of gin's default 404.
func NewRouter(st store.Store, cfg *config.Config) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(func(c *gin.Context) {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
	})

	RegisterRoutes(engine.Group("/api/v1"), st, cfg)
	return engine
}

func RegisterRoutes(router *gin.RouterGroup, st store.Store, cfg *config.Config) {
	writer := inventory.NewBatchWriter(st, store.CollectionKitchenInventory, cfg.BatchSize)
	service := NewService(writer)
	controller := NewController(service, cfg.IngestKey)
	router.POST("/inventory", controller.Ingest)
}
