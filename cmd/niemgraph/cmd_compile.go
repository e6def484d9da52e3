package main

import (
	"fmt"
	"path/filepath"

	"github.com/OFFIS-RIT/niemgraph/internal/config"
	"github.com/OFFIS-RIT/niemgraph/internal/storage"
	"github.com/OFFIS-RIT/niemgraph/pkg/cmf"
	"github.com/OFFIS-RIT/niemgraph/pkg/common"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/spf13/cobra"
)

func runCompile(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	opts := cfg.CompileOptions()
	if v, _ := flags.GetInt("max-depth"); v > 0 {
		opts.MaxDepth = v
	}
	if v, _ := flags.GetStringSlice("sentinel"); len(v) > 0 {
		opts.AssociationSentinels = v
	}
	opts.Polymorphism, _ = flags.GetBool("polymorphism")
	opts.DisableAugmentation, _ = flags.GetBool("no-augmentation")

	model, err := cmf.ParseFile(args[0])
	if err != nil {
		return err
	}
	m, diags, err := mapping.Compile(model, opts)
	if err != nil {
		return err
	}
	advisories, err := mapping.Validate(m)
	if err != nil {
		return err
	}
	diags.Merge(advisories)
	report(diags)

	logger.Info("[Mapping] Compiled",
		"model", filepath.Base(args[0]),
		"objects", len(m.Objects),
		"associations", len(m.Associations),
		"references", len(m.References),
	)

	if schemaID, _ := flags.GetString("schema-id"); schemaID != "" {
		store, err := mappingStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Put(cmd.Context(), schemaID, m); err != nil {
			return err
		}
		logger.Info("[Mapping] Stored", "schema_id", schemaID)
	}

	if out, _ := flags.GetString("output"); out != "" {
		return mapping.WriteFile(m, out)
	}
	if schemaID, _ := flags.GetString("schema-id"); schemaID != "" {
		return nil
	}

	data, err := mapping.Marshal(m)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, err := mapping.LoadFile(args[0])
	if err != nil {
		return err
	}
	diags, err := mapping.Validate(m)
	report(diags)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d advisories)\n", args[0], len(diags.Items))
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := mapping.JSONSchema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func report(diags common.Diagnostics) {
	for _, d := range diags.Items {
		switch d.Severity {
		case common.SeverityInfo:
			logger.Info(d.Message, "code", d.Code, "qname", d.QName)
		default:
			logger.Warn(d.Message, "code", d.Code, "qname", d.QName)
		}
	}
}

func mappingStore(cmd *cobra.Command) (mapping.Store, error) {
	var objects storage.ObjectAPI
	if cfg.MappingStore == config.MappingStoreS3 {
		client, err := storage.NewS3ClientFromConfig(cmd.Context(), cfg.S3)
		if err != nil {
			return nil, err
		}
		objects = client
	}
	return storage.NewMappingStore(cfg, objects)
}
