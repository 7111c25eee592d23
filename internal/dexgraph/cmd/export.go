package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"dexgraph/internal/config"
	"dexgraph/internal/dump"
	"dexgraph/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the class and call graph",
	Long: `Export the loaded classes, methods, fields and call sites into Neo4j or SQLite.
Connection settings come from the [neo4j] and [sqlite] sections of the
configuration file and can be overridden with flags.`,
}

var exportNeo4jCmd = &cobra.Command{
	Use:   "neo4j [file]",
	Short: "Load the graph into Neo4j",
	Example: `
dexgraph export neo4j --uri neo4j://localhost:7687 --user neo4j --password secret app.apk
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("uri") {
			cfg.Neo4j.URI, _ = flags.GetString("uri")
		}
		if flags.Changed("user") {
			cfg.Neo4j.User, _ = flags.GetString("user")
		}
		if flags.Changed("password") {
			cfg.Neo4j.Password, _ = flags.GetString("password")
		}

		ctx := commandContext(cmd)
		e, err := export.NewNeo4jExporter(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, commandLogger(cmd, cfg.Debug))
		if err != nil {
			return err
		}
		defer e.Close(ctx)
		return runExport(cmd, cfg, e, args[0], cfg.Neo4j.URI)
	},
}

var exportSQLiteCmd = &cobra.Command{
	Use:   "sqlite [file]",
	Short: "Write the graph into a SQLite database",
	Example: `
dexgraph export sqlite -o graph.db app.apk
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("output") {
			cfg.SQLite.Path, _ = cmd.Flags().GetString("output")
		}
		e, err := export.NewSQLiteExporter(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer e.Close(commandContext(cmd))
		return runExport(cmd, cfg, e, args[0], cfg.SQLite.Path)
	},
}

func runExport(cmd *cobra.Command, cfg *config.Config, e export.Exporter, file, dest string) error {
	path, err := inputPath(file)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	a, err := analyzeFor(cmd, cfg, path)
	if err != nil {
		return err
	}
	defer a.Close()

	g := export.Collect(a.Scope(), dump.Options{Framework: all})
	if err := e.Export(commandContext(cmd), g); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	slog.Info("graph exported", "dest", dest, "classes", len(g.Classes), "methods", len(g.Methods), "calls", len(g.Calls))
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d classes, %d methods, %d fields, %d calls to %s\n",
		len(g.Classes), len(g.Methods), len(g.Fields), len(g.Calls), dest)
	return nil
}

func init() {
	exportCmd.PersistentFlags().BoolP("all", "a", false, "Include framework classes")

	exportNeo4jCmd.Flags().String("uri", "", "Neo4j URI")
	exportNeo4jCmd.Flags().String("user", "", "Neo4j user")
	exportNeo4jCmd.Flags().String("password", "", "Neo4j password")

	exportSQLiteCmd.Flags().StringP("output", "o", "", "Database file")

	exportCmd.AddCommand(exportNeo4jCmd, exportSQLiteCmd)
	rootCmd.AddCommand(exportCmd)
}
