package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/OFFIS-RIT/niemgraph/internal/storage"
	"github.com/OFFIS-RIT/niemgraph/pkg/cypher"
	"github.com/OFFIS-RIT/niemgraph/pkg/graph"
	"github.com/OFFIS-RIT/niemgraph/pkg/loader"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"
)

const cypherContentType = "application/x-cypher-query"

// Processor handles ConvertMsg deliveries. It loads the mapping of the
// message's schema, converts every file and uploads one statement script
// per file next to the others of the same upload.
type Processor struct {
	store   mapping.Store
	client  *graph.GraphClient
	loaders func() loader.GraphFileLoader
	objects storage.ObjectAPI
	bucket  string
	prefix  string
	topic   string
}

// NewProcessorParams configures a Processor. NewLoader is called once per
// message, so a caching loader only lives as long as its batch. Scripts
// are written to Bucket under Prefix/<upload id>/<file>.cypher and a
// ConvertDoneMsg is published on DoneTopic.
type NewProcessorParams struct {
	Store     mapping.Store
	Client    *graph.GraphClient
	NewLoader func() loader.GraphFileLoader
	Objects   storage.ObjectAPI
	Bucket    string
	Prefix    string
	DoneTopic string
}

func NewProcessor(params NewProcessorParams) *Processor {
	return &Processor{
		store:   params.Store,
		client:  params.Client,
		loaders: params.NewLoader,
		objects: params.Objects,
		bucket:  params.Bucket,
		prefix:  params.Prefix,
		topic:   params.DoneTopic,
	}
}

// OutputKey returns the object key of the statement script for file.
func (p *Processor) OutputKey(uploadID, file string) string {
	return path.Join(p.prefix, uploadID, file+".cypher")
}

// ProcessConvertMessage converts the batch described by body and publishes
// the outcome on ch. Individual file failures are reported in the done
// message; the message itself fails only when it is invalid, the mapping
// cannot be loaded or no file converted.
func (p *Processor) ProcessConvertMessage(ctx context.Context, ch Channel, body []byte) error {
	msg, err := DecodeConvertMsg(body)
	if err != nil {
		return err
	}
	done, err := p.Convert(ctx, msg)
	if err != nil {
		return err
	}

	data, err := json.Marshal(done)
	if err != nil {
		return fmt.Errorf("failed to marshal done message: %w", err)
	}
	if err := PublishTopic(ch, p.topic, data); err != nil {
		return err
	}
	return nil
}

// Convert runs msg and uploads the statement scripts.
func (p *Processor) Convert(ctx context.Context, msg *ConvertMsg) (*ConvertDoneMsg, error) {
	if msg.UploadID == "" {
		msg.UploadID = loader.NewFileID()
	}

	m, err := p.store.Get(ctx, msg.SchemaID)
	if errors.Is(err, mapping.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping: %w", err)
	}
	conv := graph.NewConverter(m)

	l := p.loaders()
	files := make([]loader.GraphFile, 0, len(msg.Files))
	for _, name := range msg.Files {
		file, err := loader.NewGraphFile(loader.NewGraphFileParams{FilePath: name, Loader: l})
		if err != nil {
			file = loader.GraphFile{ID: loader.NewFileID(), FilePath: name, Loader: l}
		}
		files = append(files, file)
	}

	logger.Info("[Queue] Converting upload", "upload_id", msg.UploadID, "schema_id", msg.SchemaID, "files", len(files))

	results, err := p.client.WithSalt(msg.Salt).ConvertFiles(ctx, conv, files, msg.UploadID, msg.SchemaID)
	if err != nil {
		return nil, err
	}

	done := &ConvertDoneMsg{
		UploadID: msg.UploadID,
		SchemaID: msg.SchemaID,
		Files:    make([]FileStatus, 0, len(results)),
	}
	for _, r := range results {
		status := p.upload(ctx, msg.UploadID, r)
		if status.Status == StatusConverted {
			done.Converted++
		} else {
			done.Failed++
		}
		done.Files = append(done.Files, status)
	}

	if done.Converted == 0 {
		return nil, fmt.Errorf("failed to convert upload %s: all %d files failed", msg.UploadID, done.Failed)
	}

	logger.Info("[Queue] Upload converted", "upload_id", msg.UploadID, "converted", done.Converted, "failed", done.Failed)
	return done, nil
}

func (p *Processor) upload(ctx context.Context, uploadID string, r graph.FileResult) FileStatus {
	status := FileStatus{File: r.File.FilePath}
	if r.Err != nil {
		status.Status = StatusFailed
		status.Error = r.Err.Error()
		return status
	}

	stmts := cypher.Emit(r.Result.Graph)
	key := p.OutputKey(uploadID, r.File.FilePath)
	if err := storage.PutFile(ctx, p.objects, p.bucket, key, []byte(cypher.Script(stmts)), cypherContentType); err != nil {
		logger.Error("[Queue] Failed to store statements", "file", r.File.FilePath, "key", key, "err", err)
		status.Status = StatusFailed
		status.Error = err.Error()
		return status
	}

	status.Status = StatusConverted
	status.Output = key
	status.Statements = len(stmts)
	status.Nodes = len(r.Result.Graph.Nodes)
	status.Edges = len(r.Result.Graph.Edges) + len(r.Result.Graph.Containment)
	status.Unresolved = len(r.Result.Unresolved)
	status.Diagnostics = len(r.Result.Diagnostics.Items)
	return status
}
