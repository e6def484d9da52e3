package storage

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/OFFIS-RIT/niemgraph/internal/util"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const mappingContentType = "application/yaml"

// S3MappingStore keeps compiled mappings as YAML objects in a bucket.
type S3MappingStore struct {
	client  ObjectAPI
	bucket  string
	prefix  string
	backoff util.Backoff
}

// NewS3MappingStoreParams configures an S3MappingStore. Prefix is the key
// prefix under which mappings are stored.
type NewS3MappingStoreParams struct {
	Client  ObjectAPI
	Bucket  string
	Prefix  string
	Backoff util.Backoff
}

func NewS3MappingStore(params NewS3MappingStoreParams) *S3MappingStore {
	backoff := params.Backoff
	if backoff.MaxTries <= 0 {
		backoff = util.DefaultBackoff
	}
	return &S3MappingStore{
		client:  params.Client,
		bucket:  params.Bucket,
		prefix:  params.Prefix,
		backoff: backoff,
	}
}

func (s *S3MappingStore) objectKey(schemaID string) (string, error) {
	key, err := mapping.Key(schemaID)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return key, nil
	}
	return path.Join(s.prefix, key), nil
}

// Put uploads m for schemaID.
func (s *S3MappingStore) Put(ctx context.Context, schemaID string, m *mapping.Mapping) error {
	key, err := s.objectKey(schemaID)
	if err != nil {
		return err
	}
	data, err := mapping.Marshal(m)
	if err != nil {
		return err
	}

	err = util.RetryErrWithBackoff(ctx, s.backoff, func(ctx context.Context) error {
		return PutFile(ctx, s.client, s.bucket, key, data, mappingContentType)
	})
	if err != nil {
		return fmt.Errorf("failed to store mapping %s: %w", schemaID, err)
	}

	logger.Debug("[Storage] Stored mapping", "schema_id", schemaID, "key", key)
	return nil
}

// Get downloads the mapping for schemaID. A missing object yields
// mapping.ErrNotFound.
func (s *S3MappingStore) Get(ctx context.Context, schemaID string) (*mapping.Mapping, error) {
	key, err := s.objectKey(schemaID)
	if err != nil {
		return nil, err
	}

	data, err := util.RetryWithBackoff(ctx, s.backoff, func(ctx context.Context) ([]byte, error) {
		data, err := GetFile(ctx, s.client, s.bucket, key)
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, util.Permanent(err)
		}
		return data, err
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, fmt.Errorf("%w: %s", mapping.ErrNotFound, schemaID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping %s: %w", schemaID, err)
	}

	return mapping.Parse(data)
}
