package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator"
)

// ErrInvalidMessage marks a message that can never be processed. It skips
// the retry queue.
var ErrInvalidMessage = errors.New("invalid message")

// ConvertMsg asks the worker to convert a batch of instance files that
// were uploaded together. Files are object keys in the configured bucket.
type ConvertMsg struct {
	UploadID string   `json:"upload_id,omitempty"`
	SchemaID string   `json:"schema_id" validate:"required"`
	Files    []string `json:"files" validate:"min=1,dive,required"`
	// Salt is optional; an empty salt selects a random one per file.
	Salt string `json:"salt,omitempty"`
}

// File states reported in FileStatus.
const (
	StatusConverted = "converted"
	StatusFailed    = "failed"
)

// FileStatus is the outcome of one file of a ConvertMsg.
type FileStatus struct {
	File        string `json:"file"`
	Status      string `json:"status"`
	Output      string `json:"output,omitempty"`
	Statements  int    `json:"statements,omitempty"`
	Nodes       int    `json:"nodes,omitempty"`
	Edges       int    `json:"edges,omitempty"`
	Unresolved  int    `json:"unresolved,omitempty"`
	Diagnostics int    `json:"diagnostics,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ConvertDoneMsg is published on the done topic after a ConvertMsg was
// processed.
type ConvertDoneMsg struct {
	UploadID  string       `json:"upload_id"`
	SchemaID  string       `json:"schema_id"`
	Converted int          `json:"converted"`
	Failed    int          `json:"failed"`
	Files     []FileStatus `json:"files"`
}

var validate = validator.New()

// DecodeConvertMsg parses and validates a ConvertMsg body.
func DecodeConvertMsg(body []byte) (*ConvertMsg, error) {
	msg := new(ConvertMsg)
	if err := json.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return msg, nil
}
