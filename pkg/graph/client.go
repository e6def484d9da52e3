package graph

import "time"

// GraphClient converts batches of instance files. It bounds how many files
// are converted in parallel and how long a single file may take.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	parallelFiles int
	fileTimeout   time.Duration
	maxRetries    int
	dynamic       bool
	unresolved    UnresolvedPolicy
	salt          string
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// ParallelFiles controls how many files can be converted in parallel.
// FileTimeout bounds loading and converting one file; zero disables it.
// MaxRetries applies to loading file content.
// Dynamic and Unresolved are passed to every conversion.
type NewGraphClientParams struct {
	ParallelFiles int
	FileTimeout   time.Duration
	MaxRetries    int
	Dynamic       bool
	Unresolved    UnresolvedPolicy
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		ParallelFiles: 4,
//		FileTimeout:   30 * time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	parallel := params.ParallelFiles
	if parallel <= 0 {
		parallel = 1
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if params.FileTimeout < 0 {
		params.FileTimeout = 0
	}
	g := &GraphClient{
		parallelFiles: parallel,
		fileTimeout:   params.FileTimeout,
		maxRetries:    maxRetries,
		dynamic:       params.Dynamic,
		unresolved:    params.Unresolved,
	}

	return g, nil
}

// WithSalt returns a copy of g that derives synthetic ids from salt. An
// empty salt selects a random salt per file.
func (g *GraphClient) WithSalt(salt string) *GraphClient {
	c := *g
	c.salt = salt
	return &c
}
