package loader

import (
	"context"
	"fmt"
)

type GraphFileType string

const (
	GraphFileTypeXML    GraphFileType = "xml"
	GraphFileTypeJSONLD GraphFileType = "jsonld"
)

// GraphFile is an instance document queued for conversion. Its content is
// retrieved through the associated GraphFileLoader.
type GraphFile struct {
	ID       string
	FilePath string
	FileType GraphFileType
	Loader   GraphFileLoader
}

// NewGraphFileParams defines the input parameters for creating a new
// GraphFile.
type NewGraphFileParams struct {
	ID       string
	FilePath string
	Loader   GraphFileLoader
}

// NewGraphXMLFile creates a GraphFile for an XML instance document.
func NewGraphXMLFile(params NewGraphFileParams) GraphFile {
	return newGraphFile(params, GraphFileTypeXML)
}

// NewGraphJSONLDFile creates a GraphFile for a JSON-LD instance document.
func NewGraphJSONLDFile(params NewGraphFileParams) GraphFile {
	return newGraphFile(params, GraphFileTypeJSONLD)
}

// NewGraphFile creates a GraphFile whose type is derived from the file
// extension. An empty ID is replaced by a generated one.
func NewGraphFile(params NewGraphFileParams) (GraphFile, error) {
	fileType, ok := FileTypeFromPath(params.FilePath)
	if !ok {
		return GraphFile{}, fmt.Errorf("unsupported instance file %q", params.FilePath)
	}
	return newGraphFile(params, fileType), nil
}

func newGraphFile(params NewGraphFileParams, fileType GraphFileType) GraphFile {
	id := params.ID
	if id == "" {
		id = NewFileID()
	}
	return GraphFile{
		ID:       id,
		FilePath: params.FilePath,
		FileType: fileType,
		Loader:   params.Loader,
	}
}

// GetContent retrieves the raw document bytes using the file's Loader.
//
// Example:
//
//	data, err := file.GetContent(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
func (f *GraphFile) GetContent(ctx context.Context) ([]byte, error) {
	if f.Loader == nil {
		return nil, fmt.Errorf("file %s has no loader", f.FilePath)
	}
	return f.Loader.GetFileContent(ctx, *f)
}

// GraphFileLoader defines the interface for loading the contents of a
// GraphFile. Implementations may load files from disk, object storage, or
// other sources.
type GraphFileLoader interface {
	GetFileContent(ctx context.Context, file GraphFile) ([]byte, error)
}
