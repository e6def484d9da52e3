package storage

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/niemgraph/internal/config"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MappingPrefix is the key prefix of mappings kept in S3.
const MappingPrefix = "mappings"

// NewS3ClientFromConfig builds the S3 client for the configured endpoint.
func NewS3ClientFromConfig(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	return NewS3Client(ctx, S3Params{
		Region:    cfg.Region,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
}

// NewMappingStore returns the mapping store selected by cfg. client is only
// used by the s3 store and may be nil otherwise.
func NewMappingStore(cfg *config.Config, client ObjectAPI) (mapping.Store, error) {
	switch cfg.MappingStore {
	case config.MappingStoreS3:
		if client == nil {
			return nil, errors.New("s3 mapping store needs an S3 client")
		}
		return NewS3MappingStore(NewS3MappingStoreParams{
			Client: client,
			Bucket: cfg.S3.Bucket,
			Prefix: MappingPrefix,
		}), nil
	default:
		return mapping.NewFileStore(cfg.MappingDir), nil
	}
}
