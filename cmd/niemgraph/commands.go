package main

import (
	"github.com/OFFIS-RIT/niemgraph/internal/config"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger/console"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool

	rootCmd = &cobra.Command{
		Use:           "niemgraph",
		Short:         "Compile NIEM models into graph mappings and convert instances to Cypher",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  debug || cfg.Debug,
				Output: cmd.ErrOrStderr(),
			}))
			return nil
		},
	}

	compileCmd = &cobra.Command{
		Use:   "compile [model.cmf.xml]",
		Short: "Compile a CMF model into a mapping",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}

	convertCmd = &cobra.Command{
		Use:   "convert [instance files...]",
		Short: "Convert XML or JSON-LD instances into Cypher statements",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runConvert,
	}

	validateCmd = &cobra.Command{
		Use:   "validate [mapping.yaml]",
		Short: "Check a mapping file for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the mapping document",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	compileCmd.Flags().StringP("output", "o", "", "write the mapping to this file instead of stdout")
	compileCmd.Flags().String("schema-id", "", "store the mapping under this id in the configured mapping store")
	compileCmd.Flags().Int("max-depth", 0, "datatype flattening depth (default from NIEMGRAPH_MAX_FLATTEN_DEPTH)")
	compileCmd.Flags().StringSlice("sentinel", nil, "association base classes (default from NIEMGRAPH_ASSOCIATION_SENTINEL)")
	compileCmd.Flags().Bool("polymorphism", false, "add the concrete class of polymorphic elements as a second label")
	compileCmd.Flags().Bool("no-augmentation", false, "drop content the model does not describe")

	convertCmd.Flags().StringP("mapping", "m", "", "mapping file")
	convertCmd.Flags().String("schema-id", "", "load the mapping from the configured mapping store")
	convertCmd.Flags().String("upload-id", "", "upload id of the batch (generated when empty)")
	convertCmd.Flags().String("salt", "", "salt for synthetic ids (random when empty)")
	convertCmd.Flags().String("unresolved", "", "unresolved edge policy: keep, warn or drop")
	convertCmd.Flags().Bool("dynamic", false, "treat unmapped JSON-LD objects as nodes")
	convertCmd.Flags().StringP("out", "d", "", "write one .cypher file per instance into this directory")

	rootCmd.AddCommand(compileCmd, convertCmd, validateCmd, schemaCmd)
}
