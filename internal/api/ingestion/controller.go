package ingestion

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Nidl3r/PCC-KDS-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IngestKeyHeader carries the caller's shared secret.
const IngestKeyHeader = "X-INGEST-KEY"

// Controller handles HTTP requests for inventory ingestion
type Controller struct {
	service   *Service
	ingestKey string
}

// NewController creates a new ingestion controller
func NewController(service *Service, ingestKey string) *Controller {
	return &Controller{service: service, ingestKey: ingestKey}
}

// Ingest accepts a JSON array of inventory rows, validates each one and
// upserts the survivors. Per-record rejections are counted, not reported
// individually; only request-level problems produce error responses.
func (ctrl *Controller) Ingest(c *gin.Context) {
	if ctrl.ingestKey == "" {
		utils.Zlog.Error("Ingest key is not configured")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "ingest key is not configured on the server",
		})
		return
	}

	// One generic message for missing and mismatched keys alike.
	key := c.GetHeader(IngestKeyHeader)
	if subtle.ConstantTimeCompare([]byte(key), []byte(ctrl.ingestKey)) != 1 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be valid JSON"})
		return
	}
	items, ok := payload.([]interface{})
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be a JSON array"})
		return
	}

	written, skipped, err := ctrl.service.Ingest(c.Request.Context(), items)
	if err != nil {
		utils.Zlog.Error("Failed to ingest inventory records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, IngestResponse{OK: true, Written: written, Skipped: skipped})
}
