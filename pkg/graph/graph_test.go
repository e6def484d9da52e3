package graph

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OFFIS-RIT/niemgraph/internal/testfixtures"
	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLoader struct {
	files map[string]string
	calls atomic.Int32
}

func (l *mapLoader) GetFileContent(_ context.Context, file loader.GraphFile) ([]byte, error) {
	l.calls.Add(1)
	data, ok := l.files[file.FilePath]
	if !ok {
		return nil, fmt.Errorf("file %s not found", file.FilePath)
	}
	return []byte(data), nil
}

func newFiles(t *testing.T, l loader.GraphFileLoader, paths ...string) []loader.GraphFile {
	t.Helper()
	files := make([]loader.GraphFile, 0, len(paths))
	for _, p := range paths {
		f, err := loader.NewGraphFile(loader.NewGraphFileParams{FilePath: p, Loader: l})
		require.NoError(t, err)
		files = append(files, f)
	}
	return files
}

func TestConvertFiles(t *testing.T) {
	l := &mapLoader{files: map[string]string{
		"a.xml":      testfixtures.XMLMessage,
		"b.jsonld":   testfixtures.JSONLDMessage,
		"broken.xml": "<exch:Message>",
	}}
	client, err := NewGraphClient(NewGraphClientParams{ParallelFiles: 2, FileTimeout: time.Minute})
	require.NoError(t, err)

	conv := NewConverter(fixtureMapping(t))
	results, err := client.ConvertFiles(context.Background(), conv, newFiles(t, l, "a.xml", "b.jsonld", "broken.xml"), "upload-1", "justice-6")
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, path := range []string{"a.xml", "b.jsonld"} {
		r := results[i]
		require.NoError(t, r.Err)
		assert.Equal(t, path, r.File.FilePath)
		assert.Len(t, r.Result.Graph.Nodes, 5)
		assert.Equal(t, common.IsolationKeys{UploadID: "upload-1", SourceFile: path, SchemaID: "justice-6"}, r.Result.Graph.Nodes[0].Isolation)
	}

	assert.Nil(t, results[2].Result)
	assert.True(t, errors.Is(results[2].Err, common.ErrMalformedInput))
}

func TestConvertFilesGeneratesUploadID(t *testing.T) {
	l := &mapLoader{files: map[string]string{"a.xml": testfixtures.XMLMessage}}
	client, err := NewGraphClient(NewGraphClientParams{})
	require.NoError(t, err)

	results, err := client.ConvertFiles(context.Background(), NewConverter(fixtureMapping(t)), newFiles(t, l, "a.xml"), "", "justice-6")
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].Result.Graph.Nodes[0].Isolation.UploadID)
}

func TestConvertFileRetriesLoading(t *testing.T) {
	l := &mapLoader{files: map[string]string{}}
	client, err := NewGraphClient(NewGraphClientParams{MaxRetries: 2})
	require.NoError(t, err)

	files := newFiles(t, l, "missing.xml")
	_, err = client.ConvertFile(context.Background(), NewConverter(fixtureMapping(t)), files[0], isolation("missing.xml"))
	require.Error(t, err)
	assert.Equal(t, int32(2), l.calls.Load())
}

func TestConvertFileDetectsFormat(t *testing.T) {
	l := &mapLoader{files: map[string]string{"upload": testfixtures.JSONLDMessage}}
	client, err := NewGraphClient(NewGraphClientParams{})
	require.NoError(t, err)

	file := loader.GraphFile{ID: "f1", FilePath: "upload", Loader: l}
	res, err := client.ConvertFile(context.Background(), NewConverter(fixtureMapping(t)), file, isolation("upload"))
	require.NoError(t, err)
	assert.Len(t, res.Graph.Nodes, 5)
}

func TestConvertFilesCanceled(t *testing.T) {
	l := &mapLoader{files: map[string]string{"a.xml": testfixtures.XMLMessage}}
	client, err := NewGraphClient(NewGraphClientParams{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := client.ConvertFiles(ctx, NewConverter(fixtureMapping(t)), newFiles(t, l, "a.xml"), "u", "s")
	assert.True(t, errors.Is(err, context.Canceled))
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestWithSaltIsDeterministic(t *testing.T) {
	l := &mapLoader{files: map[string]string{"a.xml": testfixtures.XMLMessage}}
	base, err := NewGraphClient(NewGraphClientParams{})
	require.NoError(t, err)
	client := base.WithSalt("fixed")
	conv := NewConverter(fixtureMapping(t))

	first, err := client.ConvertFile(context.Background(), conv, newFiles(t, l, "a.xml")[0], isolation("a.xml"))
	require.NoError(t, err)
	second, err := client.ConvertFile(context.Background(), conv, newFiles(t, l, "a.xml")[0], isolation("a.xml"))
	require.NoError(t, err)

	assert.Equal(t, "fixed", first.Salt)
	assert.Equal(t, first.Graph, second.Graph)
	assert.Empty(t, base.salt)
}

func TestConvertDocument(t *testing.T) {
	client, err := NewGraphClient(NewGraphClientParams{Unresolved: UnresolvedDrop})
	require.NoError(t, err)
	conv := NewConverter(fixtureMapping(t))

	res, err := client.ConvertDocument(context.Background(), conv, "", []byte(testfixtures.JSONLDMessage), isolation("upload"))
	require.NoError(t, err)
	assert.Len(t, res.Graph.Nodes, 5)

	_, err = client.ConvertDocument(context.Background(), conv, FormatXML, []byte("<exch:Message>"), isolation("upload.xml"))
	assert.True(t, errors.Is(err, common.ErrMalformedInput))
}
