package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OFFIS-RIT/niemgraph/pkg/cypher"
	"github.com/OFFIS-RIT/niemgraph/pkg/graph"
	"github.com/OFFIS-RIT/niemgraph/pkg/loader"
	ioloader "github.com/OFFIS-RIT/niemgraph/pkg/loader/io"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/spf13/cobra"
)

func runConvert(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	ctx := cmd.Context()

	m, schemaID, err := loadMapping(cmd)
	if err != nil {
		return err
	}

	params, err := cfg.GraphClientParams()
	if err != nil {
		return err
	}
	if v, _ := flags.GetString("unresolved"); v != "" {
		if params.Unresolved, err = graph.ParseUnresolvedPolicy(v); err != nil {
			return err
		}
	}
	if flags.Changed("dynamic") {
		params.Dynamic, _ = flags.GetBool("dynamic")
	}
	client, err := graph.NewGraphClient(params)
	if err != nil {
		return err
	}
	salt, _ := flags.GetString("salt")
	uploadID, _ := flags.GetString("upload-id")
	if uploadID == "" {
		uploadID = loader.NewFileID()
	}

	l := ioloader.NewIOGraphFileLoader()
	files := make([]loader.GraphFile, 0, len(args))
	for _, path := range args {
		file, err := loader.NewGraphFile(loader.NewGraphFileParams{FilePath: path, Loader: l})
		if err != nil {
			file = loader.GraphFile{ID: loader.NewFileID(), FilePath: path, Loader: l}
		}
		files = append(files, file)
	}

	results, err := client.WithSalt(salt).ConvertFiles(ctx, graph.NewConverter(m), files, uploadID, schemaID)
	if err != nil {
		return err
	}

	outDir, _ := flags.GetString("out")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var failed []error
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Err)
			continue
		}
		report(r.Result.Diagnostics)
		script := cypher.Script(cypher.Emit(r.Result.Graph))
		if err := writeScript(cmd.OutOrStdout(), outDir, r.File.FilePath, script); err != nil {
			return err
		}
	}

	logger.Info("[Convert] Done", "upload_id", uploadID, "files", len(results), "failed", len(failed))
	return errors.Join(failed...)
}

func loadMapping(cmd *cobra.Command) (*mapping.Mapping, string, error) {
	path, _ := cmd.Flags().GetString("mapping")
	schemaID, _ := cmd.Flags().GetString("schema-id")

	switch {
	case path != "":
		m, err := mapping.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		if schemaID == "" {
			schemaID = mapping.SchemaIDFromPath(path)
		}
		return m, schemaID, nil
	case schemaID != "":
		store, err := mappingStore(cmd)
		if err != nil {
			return nil, "", err
		}
		m, err := store.Get(cmd.Context(), schemaID)
		if err != nil {
			return nil, "", err
		}
		return m, schemaID, nil
	default:
		return nil, "", errors.New("either --mapping or --schema-id is required")
	}
}

func writeScript(stdout io.Writer, outDir, file, script string) error {
	if outDir == "" {
		_, err := io.WriteString(stdout, script)
		return err
	}
	target := filepath.Join(outDir, filepath.Base(file)+".cypher")
	if err := os.WriteFile(target, []byte(script), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	logger.Info("[Convert] Wrote statements", "file", file, "output", target)
	return nil
}
