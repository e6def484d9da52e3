package routes

import (
	"errors"
	"io"
	"net/http"

	"github.com/OFFIS-RIT/niemgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/cypher"
	"github.com/OFFIS-RIT/niemgraph/pkg/graph"
	"github.com/OFFIS-RIT/niemgraph/pkg/loader"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/labstack/echo/v4"
)

// ConvertHandler converts the instance document in the request body with
// the mapping of the schema id and answers with the statements. Query
// parameters: file names the source file, upload_id scopes the graph,
// format forces xml or jsonld, salt pins synthetic ids and output=cypher
// returns a plain statement script.
func ConvertHandler(c echo.Context) error {
	type convertResponse struct {
		Message     string              `json:"message"`
		UploadID    string              `json:"upload_id,omitempty"`
		SourceFile  string              `json:"source_file,omitempty"`
		Salt        string              `json:"salt,omitempty"`
		Nodes       int                 `json:"nodes"`
		Containment int                 `json:"containment"`
		Edges       int                 `json:"edges"`
		Unresolved  int                 `json:"unresolved"`
		Statements  []string            `json:"statements,omitempty"`
		Diagnostics []common.Diagnostic `json:"diagnostics,omitempty"`
	}

	schemaID := c.Param("id")
	if _, err := mapping.Key(schemaID); err != nil {
		return c.JSON(http.StatusBadRequest, convertResponse{Message: "Invalid schema id"})
	}

	var format graph.Format
	if f := c.QueryParam("format"); f != "" {
		parsed, err := graph.ParseFormat(f)
		if err != nil {
			return c.JSON(http.StatusBadRequest, convertResponse{Message: err.Error()})
		}
		format = parsed
	}
	isolation := common.IsolationKeys{
		UploadID:   c.QueryParam("upload_id"),
		SourceFile: c.QueryParam("file"),
		SchemaID:   schemaID,
	}
	if isolation.UploadID == "" {
		isolation.UploadID = loader.NewFileID()
	}
	if isolation.SourceFile == "" {
		isolation.SourceFile = "document"
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, convertResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	m, err := app.Store.Get(ctx, schemaID)
	if errors.Is(err, mapping.ErrNotFound) {
		return c.JSON(http.StatusNotFound, convertResponse{Message: "Schema not found"})
	}
	if err != nil {
		logger.Error("[Mapping] Failed to load mapping", "schema_id", schemaID, "err", err)
		return c.JSON(http.StatusInternalServerError, convertResponse{Message: "Internal server error"})
	}

	res, err := app.Graph.WithSalt(c.QueryParam("salt")).ConvertDocument(ctx, graph.NewConverter(m), format, data, isolation)
	if errors.Is(err, common.ErrMalformedInput) {
		return c.JSON(http.StatusBadRequest, convertResponse{Message: err.Error()})
	}
	if err != nil {
		logger.Error("[Convert] Failed to convert document", "schema_id", schemaID, "file", isolation.SourceFile, "err", err)
		return c.JSON(http.StatusInternalServerError, convertResponse{Message: "Internal server error"})
	}

	stmts := cypher.Emit(res.Graph)
	if c.QueryParam("output") == "cypher" {
		return c.Blob(http.StatusOK, "application/x-cypher-query", []byte(cypher.Script(stmts)))
	}

	return c.JSON(http.StatusOK, convertResponse{
		Message:     "Document converted",
		UploadID:    isolation.UploadID,
		SourceFile:  isolation.SourceFile,
		Salt:        res.Salt,
		Nodes:       len(res.Graph.Nodes),
		Containment: len(res.Graph.Containment),
		Edges:       len(res.Graph.Edges),
		Unresolved:  len(res.Unresolved),
		Statements:  stmts,
		Diagnostics: res.Diagnostics.Items,
	})
}
