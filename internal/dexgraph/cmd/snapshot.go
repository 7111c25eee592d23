package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dexgraph/internal/dump"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [file]",
	Short: "Write a canonical CBOR snapshot of the report",
	Long: `Write the JSON report model as canonical CBOR. Two loads of the same input
produce byte-identical snapshots, so they can be compared with cmp.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, err := inputPath(args[0])
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		all, _ := cmd.Flags().GetBool("all")

		a, err := analyzeFor(cmd, cfg, path)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("could not create snapshot: %w", err)
		}
		r := dump.Build(a.Scope(), a.Digest, dump.Options{Framework: all})
		if err := dump.Snapshot(f, r); err != nil {
			f.Close()
			return fmt.Errorf("could not write snapshot: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d classes to %s\n", r.ClassCount, output)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringP("output", "o", "dexgraph.cbor", "Snapshot file")
	snapshotCmd.Flags().BoolP("all", "a", false, "Include framework classes")
	rootCmd.AddCommand(snapshotCmd)
}
