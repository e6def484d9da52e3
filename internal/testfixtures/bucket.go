package testfixtures

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MemoryBucket is an in-memory stand-in for the S3 object API. Objects are
// keyed by "bucket/key". The first FailPuts uploads fail.
type MemoryBucket struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	FailPuts int
	Puts     int
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{Objects: map[string][]byte{}}
}

func (b *MemoryBucket) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.Objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (b *MemoryBucket) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Puts++
	if b.Puts <= b.FailPuts {
		return nil, errors.New("slow down")
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	b.Objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

// Object returns a stored object.
func (b *MemoryBucket) Object(bucket, key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.Objects[bucket+"/"+key]
	return data, ok
}
