package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/niemgraph/internal/queue"
	"github.com/OFFIS-RIT/niemgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/niemgraph/pkg/loader"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/labstack/echo/v4"
)

// CreateUploadHandler queues a batch of stored instance files for the
// convert worker.
func CreateUploadHandler(c echo.Context) error {
	type createUploadBody struct {
		SchemaID string   `json:"schema_id" validate:"required"`
		UploadID string   `json:"upload_id"`
		Files    []string `json:"files" validate:"min=1,dive,required"`
		Salt     string   `json:"salt"`
	}

	type createUploadResponse struct {
		Message  string `json:"message"`
		UploadID string `json:"upload_id,omitempty"`
		Files    int    `json:"files,omitempty"`
	}

	data := new(createUploadBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createUploadResponse{
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createUploadResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, createUploadResponse{
			Message: "Queue not configured",
		})
	}

	ctx := c.Request().Context()
	if _, err := app.Store.Get(ctx, data.SchemaID); err != nil {
		if errors.Is(err, mapping.ErrNotFound) {
			return c.JSON(http.StatusNotFound, createUploadResponse{Message: "Schema not found"})
		}
		return c.JSON(http.StatusBadRequest, createUploadResponse{Message: err.Error()})
	}

	uploadID := data.UploadID
	if uploadID == "" {
		uploadID = loader.NewFileID()
	}

	msg, err := json.Marshal(queue.ConvertMsg{
		UploadID: uploadID,
		SchemaID: data.SchemaID,
		Files:    data.Files,
		Salt:     data.Salt,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createUploadResponse{Message: "Internal server error"})
	}

	if err := queue.PublishFIFO(app.Queue, app.ConvertQueue, msg); err != nil {
		logger.Error("[Queue] Failed to queue upload", "upload_id", uploadID, "err", err)
		return c.JSON(http.StatusInternalServerError, createUploadResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, createUploadResponse{
		Message:  "Upload queued",
		UploadID: uploadID,
		Files:    len(data.Files),
	})
}
