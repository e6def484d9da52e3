package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/niemgraph/internal/util"
	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/loader"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of converting one file of a batch. Exactly one
// of Result and Err is set.
type FileResult struct {
	File   loader.GraphFile
	Result *Result
	Err    error
}

// ConvertFile loads one file and converts it within the given isolation
// scope.
func (g *GraphClient) ConvertFile(
	ctx context.Context,
	conv *Converter,
	file loader.GraphFile,
	isolation common.IsolationKeys,
) (*Result, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	data, err := util.RetryWithBackoff(ctx, util.Backoff{MaxTries: g.maxRetries}, file.GetContent)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file.FilePath, err)
	}

	format := DetectFormat(file.FilePath, data)
	switch file.FileType {
	case loader.GraphFileTypeXML:
		format = FormatXML
	case loader.GraphFileTypeJSONLD:
		format = FormatJSONLD
	}

	return conv.Convert(ctx, format, data, g.options(isolation))
}

// ConvertDocument converts a document already in memory with the client's
// settings. An empty format is detected from the source file name and
// the content.
func (g *GraphClient) ConvertDocument(
	ctx context.Context,
	conv *Converter,
	format Format,
	data []byte,
	isolation common.IsolationKeys,
) (*Result, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if format == "" {
		format = DetectFormat(isolation.SourceFile, data)
	}
	return conv.Convert(ctx, format, data, g.options(isolation))
}

func (g *GraphClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.fileTimeout > 0 {
		return context.WithTimeout(ctx, g.fileTimeout)
	}
	return context.WithCancel(ctx)
}

func (g *GraphClient) options(isolation common.IsolationKeys) Options {
	return Options{
		Isolation:  isolation,
		Salt:       g.salt,
		Dynamic:    g.dynamic,
		Unresolved: g.unresolved,
	}
}

// ConvertFiles converts a batch of files uploaded together. Every file gets
// its own isolation scope (uploadID, file path, schemaID), so identifiers
// reused across files never merge. A failing file is reported in its
// FileResult and does not stop the others. Results keep the order of files.
func (g *GraphClient) ConvertFiles(
	ctx context.Context,
	conv *Converter,
	files []loader.GraphFile,
	uploadID string,
	schemaID string,
) ([]FileResult, error) {
	if uploadID == "" {
		uploadID = loader.NewFileID()
	}

	results := make([]FileResult, len(files))
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelFiles)

	logger.Info("[Graph] Converting", "total_files", len(files), "upload_id", uploadID, "schema_id", schemaID)

	for i, file := range files {
		eg.Go(func() error {
			results[i].File = file
			if err := gCtx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			result, err := g.ConvertFile(gCtx, conv, file, common.IsolationKeys{
				UploadID:   uploadID,
				SourceFile: file.FilePath,
				SchemaID:   schemaID,
			})
			if err != nil {
				logger.Error("[Graph] Failed to convert file", "file", file.FilePath, "err", err)
				results[i].Err = err
				return nil
			}
			results[i].Result = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, fmt.Errorf("failed to convert files:\n%w", err)
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("[Graph] Files converted", "total_files", len(files), "failed", failed)

	return results, nil
}
