package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/niemgraph/internal/queue"
	mid "github.com/OFFIS-RIT/niemgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/niemgraph/internal/testfixtures"
	"github.com/OFFIS-RIT/niemgraph/pkg/graph"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func (c *recordingChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	return nil
}

func (c *recordingChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	return amqp091.Queue{Name: name}, nil
}

func (c *recordingChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.published == nil {
		c.published = map[string][][]byte{}
	}
	c.published[key] = append(c.published[key], msg.Body)
	return nil
}

func newApp(t *testing.T) *mid.App {
	t.Helper()
	client, err := graph.NewGraphClient(graph.NewGraphClientParams{})
	require.NoError(t, err)
	return &mid.App{
		Store:        mapping.NewFileStore(t.TempDir()),
		Graph:        client,
		ConvertQueue: "convert_queue",
	}
}

func do(e *echo.Echo, method, target, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func putSchema(t *testing.T, e *echo.Echo) {
	t.Helper()
	rec := do(e, http.MethodPut, "/api/schemas/justice-6", testfixtures.CMF)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	e := New(newApp(t), "1M")
	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestPutAndGetSchema(t *testing.T) {
	e := New(newApp(t), "1M")

	rec := do(e, http.MethodPut, "/api/schemas/justice-6", testfixtures.CMF)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		SchemaID     string `json:"schema_id"`
		Objects      int    `json:"objects"`
		Associations int    `json:"associations"`
		References   int    `json:"references"`
		Diagnostics  []struct {
			Severity string `json:"severity"`
			Code     string `json:"code"`
			QName    string `json:"qname"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "justice-6", res.SchemaID)
	assert.Equal(t, 5, res.Objects)
	assert.Equal(t, 2, res.Associations)
	assert.Equal(t, 4, res.References)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "warning", res.Diagnostics[0].Severity)
	assert.Equal(t, "cardinality_violation", res.Diagnostics[0].Code)

	rec = do(e, http.MethodGet, "/api/schemas/justice-6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
	m, err := mapping.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, m.Objects, 5)
	assert.True(t, m.Augmentations.Enabled)
}

func TestPutSchemaOptions(t *testing.T) {
	app := newApp(t)
	e := New(app, "1M")

	rec := do(e, http.MethodPut, "/api/schemas/justice-6?polymorphism=true&augmentation=false", testfixtures.CMF)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	m, err := app.Store.Get(context.Background(), "justice-6")
	require.NoError(t, err)
	assert.True(t, m.Polymorphism.Enabled)
	assert.False(t, m.Augmentations.Enabled)

	rec = do(e, http.MethodPut, "/api/schemas/justice-6?polymorphism=maybe", testfixtures.CMF)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchemaErrors(t *testing.T) {
	e := New(newApp(t), "1M")

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/api/schemas/broken", "<Model>").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/schemas/unknown", "").Code)
}

func TestMappingSchema(t *testing.T) {
	e := New(newApp(t), "1M")
	rec := do(e, http.MethodGet, "/api/mapping-schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NIEM graph mapping")
}

func TestConvert(t *testing.T) {
	e := New(newApp(t), "1M")
	putSchema(t, e)

	rec := do(e, http.MethodPost, "/api/schemas/justice-6/convert?upload_id=u1&file=a.xml&salt=s", testfixtures.XMLMessage)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		UploadID   string   `json:"upload_id"`
		SourceFile string   `json:"source_file"`
		Salt       string   `json:"salt"`
		Nodes      int      `json:"nodes"`
		Statements []string `json:"statements"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "u1", res.UploadID)
	assert.Equal(t, "a.xml", res.SourceFile)
	assert.Equal(t, "s", res.Salt)
	assert.Equal(t, 5, res.Nodes)
	require.NotEmpty(t, res.Statements)
	assert.Contains(t, res.Statements[0], "_upload_id: 'u1', _source_file: 'a.xml', _schema_id: 'justice-6'")

	rec = do(e, http.MethodPost, "/api/schemas/justice-6/convert?upload_id=u1&file=a.xml&salt=s&output=cypher", testfixtures.XMLMessage)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, len(res.Statements), strings.Count(rec.Body.String(), ";\n"))
}

func TestConvertJSONLD(t *testing.T) {
	e := New(newApp(t), "1M")
	putSchema(t, e)

	rec := do(e, http.MethodPost, "/api/schemas/justice-6/convert?format=jsonld", testfixtures.JSONLDMessage)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"nodes":5`)
}

func TestConvertErrors(t *testing.T) {
	e := New(newApp(t), "1M")
	putSchema(t, e)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/schemas/justice-6/convert?format=csv", "a,b").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/schemas/justice-6/convert?file=a.xml", "<exch:Message>").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/api/schemas/unknown/convert", testfixtures.XMLMessage).Code)
}

func TestCreateUpload(t *testing.T) {
	app := newApp(t)
	ch := &recordingChannel{}
	app.Queue = ch
	e := New(app, "1M")
	putSchema(t, e)

	rec := do(e, http.MethodPost, "/api/uploads", `{"schema_id":"justice-6","upload_id":"u1","files":["in/a.xml","in/b.jsonld"]}`,
		echo.HeaderContentType, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"upload_id":"u1"`)

	require.Len(t, ch.published["convert_queue"], 1)
	msg, err := queue.DecodeConvertMsg(ch.published["convert_queue"][0])
	require.NoError(t, err)
	assert.Equal(t, "justice-6", msg.SchemaID)
	assert.Equal(t, []string{"in/a.xml", "in/b.jsonld"}, msg.Files)
}

func TestCreateUploadErrors(t *testing.T) {
	app := newApp(t)
	e := New(app, "1M")
	putSchema(t, e)
	body := `{"schema_id":"justice-6","files":["a.xml"]}`
	jsonHeader := []string{echo.HeaderContentType, echo.MIMEApplicationJSON}

	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodPost, "/api/uploads", body, jsonHeader...).Code)

	app.Queue = &recordingChannel{}
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/uploads", `{"schema_id":"justice-6","files":[]}`, jsonHeader...).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/uploads", `{"files":["a.xml"]}`, jsonHeader...).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPost, "/api/uploads", `{"schema_id":"unknown","files":["a.xml"]}`, jsonHeader...).Code)
}

func TestMasterAPIKey(t *testing.T) {
	app := newApp(t)
	app.MasterAPIKey = "master-key"
	e := New(app, "1M")

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/mapping-schema", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/mapping-schema", "", "Authorization", "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/mapping-schema", "", "Authorization", "Bearer master-key").Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(do(e, http.MethodGet, "/api/mapping-schema", "").Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"message": "Unauthorized"}, body)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "").Code)
}

func TestJWTPermissions(t *testing.T) {
	secret := []byte("test-secret")
	app := newApp(t)
	app.Keyfunc = func(*jwt.Token) (any, error) { return secret, nil }
	e := New(app, "1M")

	sign := func(claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		return "Bearer " + token
	}

	admin := sign(jwt.MapClaims{"sub": "ops", "role": "admin"})
	rec := do(e, http.MethodPut, "/api/schemas/justice-6", testfixtures.CMF, "Authorization", admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reader := sign(jwt.MapClaims{"sub": "alice", "permissions": []string{mid.PermissionSchemaRead}})
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/schemas/justice-6", "", "Authorization", reader).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPut, "/api/schemas/justice-6", testfixtures.CMF, "Authorization", reader).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/api/schemas/justice-6/convert", testfixtures.XMLMessage, "Authorization", reader).Code)

	forbidden := do(e, http.MethodPut, "/api/schemas/justice-6", testfixtures.CMF, "Authorization", reader)
	assert.Contains(t, forbidden.Body.String(), `"message"`)

	noSubject := sign(jwt.MapClaims{"role": "admin"})
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/mapping-schema", "", "Authorization", noSubject).Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "mallory", "role": "admin"}).SignedString([]byte("other"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/mapping-schema", "", "Authorization", "Bearer "+forged).Code)
}
