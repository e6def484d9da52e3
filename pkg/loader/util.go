package loader

import (
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CacheKey identifies a file in loader caches.
func CacheKey(file GraphFile) string {
	return file.ID + ":" + file.FilePath
}

// FileTypeFromPath maps a file extension to a GraphFileType.
func FileTypeFromPath(path string) (GraphFileType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return GraphFileTypeXML, true
	case ".json", ".jsonld":
		return GraphFileTypeJSONLD, true
	default:
		return "", false
	}
}

// NewFileID returns a random file identifier.
func NewFileID() string {
	return gonanoid.Must()
}
