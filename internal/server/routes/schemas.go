package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/niemgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/niemgraph/pkg/cmf"
	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/labstack/echo/v4"
)

// PutSchemaHandler compiles the CMF model in the request body and stores
// the mapping under the schema id. The query parameters polymorphism and
// augmentation override the configured compile options.
func PutSchemaHandler(c echo.Context) error {
	type putSchemaResponse struct {
		Message      string              `json:"message"`
		SchemaID     string              `json:"schema_id,omitempty"`
		Objects      int                 `json:"objects"`
		Associations int                 `json:"associations"`
		References   int                 `json:"references"`
		Diagnostics  []common.Diagnostic `json:"diagnostics,omitempty"`
	}

	schemaID := c.Param("id")
	if _, err := mapping.Key(schemaID); err != nil {
		return c.JSON(http.StatusBadRequest, putSchemaResponse{Message: "Invalid schema id"})
	}

	app := c.(*middleware.AppContext).App
	opts := app.Compile
	augmentation := !opts.DisableAugmentation
	err := echo.QueryParamsBinder(c).
		Bool("polymorphism", &opts.Polymorphism).
		Bool("augmentation", &augmentation).
		BindError()
	if err != nil {
		return c.JSON(http.StatusBadRequest, putSchemaResponse{Message: "Invalid query parameters"})
	}
	opts.DisableAugmentation = !augmentation

	model, err := cmf.Parse(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, putSchemaResponse{Message: err.Error()})
	}

	m, diags, err := mapping.Compile(model, opts)
	if err != nil {
		return c.JSON(http.StatusBadRequest, putSchemaResponse{Message: err.Error()})
	}
	advisories, err := mapping.Validate(m)
	if err != nil {
		logger.Error("[Mapping] Compiled mapping is invalid", "schema_id", schemaID, "err", err)
		return c.JSON(http.StatusInternalServerError, putSchemaResponse{Message: "Internal server error"})
	}
	diags.Merge(advisories)

	ctx := c.Request().Context()
	if err := app.Store.Put(ctx, schemaID, m); err != nil {
		logger.Error("[Mapping] Failed to store mapping", "schema_id", schemaID, "err", err)
		return c.JSON(http.StatusInternalServerError, putSchemaResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, putSchemaResponse{
		Message:      "Schema compiled",
		SchemaID:     schemaID,
		Objects:      len(m.Objects),
		Associations: len(m.Associations),
		References:   len(m.References),
		Diagnostics:  diags.Items,
	})
}

// GetSchemaHandler returns the stored mapping as YAML.
func GetSchemaHandler(c echo.Context) error {
	schemaID := c.Param("id")
	if _, err := mapping.Key(schemaID); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid schema id"})
	}

	app := c.(*middleware.AppContext).App
	m, err := app.Store.Get(c.Request().Context(), schemaID)
	if errors.Is(err, mapping.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Schema not found"})
	}
	if err != nil {
		logger.Error("[Mapping] Failed to load mapping", "schema_id", schemaID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	data, err := mapping.Marshal(m)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	return c.Blob(http.StatusOK, "application/yaml", data)
}

// GetMappingSchemaHandler returns the JSON Schema of the mapping document.
func GetMappingSchemaHandler(c echo.Context) error {
	data, err := mapping.JSONSchema()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	return c.JSONBlob(http.StatusOK, data)
}
