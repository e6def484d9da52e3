// Package config reads the runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/niemgraph/internal/util"
	"github.com/OFFIS-RIT/niemgraph/pkg/graph"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/go-playground/validator"
)

const (
	MappingStoreFile = "file"
	MappingStoreS3   = "s3"
)

// S3 holds the object storage settings shared by the mapping store and the
// instance loader.
type S3 struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Queue holds the RabbitMQ settings of the convert worker and the API.
// An empty Host disables queueing.
type Queue struct {
	User         string
	Password     string
	Host         string
	Port         string
	ConvertQueue string `validate:"required"`
	DoneTopic    string `validate:"required"`
	MaxRetries   int    `validate:"min=0"`
	// OutputPrefix is the key prefix for emitted statement scripts.
	OutputPrefix string
}

// URL returns the AMQP connection URL.
func (q Queue) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", q.User, q.Password, q.Host, q.Port)
}

// Server holds the HTTP API settings.
type Server struct {
	Port      string `validate:"required"`
	BodyLimit string `validate:"required"`
	// MasterAPIKey grants every permission. AuthURL points at a JWKS
	// endpoint; when both are empty the API is unauthenticated.
	MasterAPIKey string
	AuthURL      string
}

type Config struct {
	Debug bool

	MaxFlattenDepth      int      `validate:"min=1,max=16"`
	AssociationSentinels []string `validate:"min=1,dive,required"`
	AugmentationPrefix   string   `validate:"required"`

	DynamicJSONLD    bool
	UnresolvedPolicy string `validate:"oneof=keep warn drop"`

	ParallelFiles int `validate:"min=1"`
	FileTimeout   time.Duration

	MappingStore string `validate:"oneof=file s3"`
	MappingDir   string

	S3     S3
	Queue  Queue
	Server Server
}

var validate = validator.New()

// Load reads a .env file if present and builds the configuration from the
// environment.
func Load() (*Config, error) {
	util.LoadEnv()

	cfg := &Config{
		Debug:                util.GetEnvBool("DEBUG", false),
		MaxFlattenDepth:      util.GetEnvInt("NIEMGRAPH_MAX_FLATTEN_DEPTH", 3),
		AssociationSentinels: splitList(util.GetEnvString("NIEMGRAPH_ASSOCIATION_SENTINEL", "nc.AssociationType,structures.AssociationType")),
		AugmentationPrefix:   util.GetEnvString("NIEMGRAPH_AUGMENTATION_PREFIX", "aug_"),
		DynamicJSONLD:        util.GetEnvBool("NIEMGRAPH_DYNAMIC_JSONLD", false),
		UnresolvedPolicy:     strings.ToLower(util.GetEnvString("NIEMGRAPH_UNRESOLVED_POLICY", "keep")),
		ParallelFiles:        util.GetEnvInt("NIEMGRAPH_PARALLEL_FILES", 4),
		FileTimeout:          util.GetEnvSeconds("NIEMGRAPH_FILE_TIMEOUT_SECONDS", 30*time.Second),
		MappingStore:         strings.ToLower(util.GetEnvString("NIEMGRAPH_MAPPING_STORE", MappingStoreFile)),
		MappingDir:           util.GetEnvString("NIEMGRAPH_MAPPING_DIR", "./mappings"),
		S3: S3{
			Region:    util.GetEnv("AWS_REGION"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
			Bucket:    util.GetEnv("AWS_BUCKET"),
		},
		Queue: Queue{
			User:         util.GetEnvString("RABBITMQ_USER", "guest"),
			Password:     util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
			Host:         util.GetEnv("RABBITMQ_HOST"),
			Port:         util.GetEnvString("RABBITMQ_PORT", "5672"),
			ConvertQueue: util.GetEnvString("NIEMGRAPH_CONVERT_QUEUE", "convert_queue"),
			DoneTopic:    util.GetEnvString("NIEMGRAPH_DONE_TOPIC", "convert.done"),
			MaxRetries:   util.GetEnvInt("NIEMGRAPH_QUEUE_MAX_RETRIES", 10),
			OutputPrefix: util.GetEnvString("NIEMGRAPH_OUTPUT_PREFIX", "statements"),
		},
		Server: Server{
			Port:         util.GetEnvString("PORT", "8080"),
			BodyLimit:    util.GetEnvString("NIEMGRAPH_BODY_LIMIT", "64M"),
			MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
			AuthURL:      util.GetEnv("AUTH_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and the settings the selected mapping store
// needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.MappingStore {
	case MappingStoreFile:
		if c.MappingDir == "" {
			return errors.New("invalid configuration: NIEMGRAPH_MAPPING_DIR is required for the file mapping store")
		}
	case MappingStoreS3:
		if c.S3.Bucket == "" {
			return errors.New("invalid configuration: AWS_BUCKET is required for the s3 mapping store")
		}
	}
	return nil
}

// CompileOptions returns the mapping compiler options.
func (c *Config) CompileOptions() mapping.CompileOptions {
	return mapping.CompileOptions{
		MaxDepth:             c.MaxFlattenDepth,
		AssociationSentinels: c.AssociationSentinels,
		AugmentationPrefix:   c.AugmentationPrefix,
	}
}

// GraphClientParams returns the batch converter settings.
func (c *Config) GraphClientParams() (graph.NewGraphClientParams, error) {
	policy, err := graph.ParseUnresolvedPolicy(c.UnresolvedPolicy)
	if err != nil {
		return graph.NewGraphClientParams{}, err
	}
	return graph.NewGraphClientParams{
		ParallelFiles: c.ParallelFiles,
		FileTimeout:   c.FileTimeout,
		Dynamic:       c.DynamicJSONLD,
		Unresolved:    policy,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
