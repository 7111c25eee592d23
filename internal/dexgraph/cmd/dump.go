package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dexgraph/internal/dump"
	"dexgraph/internal/ui/colorize"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Print the canonical IR dump",
	Long: `Print every loaded class with its methods, their instructions and try blocks,
sorted by name. Framework classes are left out unless --all is given.`,
	Example: `
# Dump an APK
dexgraph dump app.apk

# Dump with framework classes that the app touched, highlighted
dexgraph dump --framework android.jar.dex --all --color app.apk
  `,
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
		all, _ := cmd.Flags().GetBool("all")
		color, _ := cmd.Flags().GetBool("color")

		a, err := analyzeFor(cmd, cfg, path)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := dump.Options{Framework: all}
		if !color {
			return dump.Text(cmd.OutOrStdout(), a.Scope(), opts)
		}
		var buf bytes.Buffer
		if err := dump.Text(&buf, a.Scope(), opts); err != nil {
			return err
		}
		out, err := colorize.Text(buf.String())
		if err != nil {
			fmt.Fprintf(os.Stderr, "highlighting failed: %v\n", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	dumpCmd.Flags().BoolP("all", "a", false, "Include framework classes")
	dumpCmd.Flags().Bool("color", false, "Highlight the dump (DEXGRAPH_NO_COLOR turns it off)")
	rootCmd.AddCommand(dumpCmd)
}
