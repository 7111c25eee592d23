package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"dexgraph/internal/config"
	dlog "dexgraph/internal/dexgraph/log"
	"dexgraph/internal/dump"
	"dexgraph/internal/logging"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default ./"+config.FileName+")")
	rootCmd.PersistentFlags().StringP("data-dir", "D", "", "Directory holding android-<api>.dex framework images")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("framework", "", "Framework .dex or .apk to resolve calls against")
	rootCmd.PersistentFlags().Int("api", 0, "Android API level of the framework image under --data-dir")
	rootCmd.PersistentFlags().Int("workers", 0, "Parallel dex decoding limit")
	rootCmd.PersistentFlags().Bool("no-translate", false, "Load classes without decoding method bodies")
	rootCmd.PersistentFlags().String("log-file", "", "Write process logs to a file")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print the canonical dump without TUI")
	rootCmd.Flags().BoolP("json", "j", false, "Output the report as JSON for regression testing")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
}

var rootCmd = &cobra.Command{
	Use:   "dexgraph [file]",
	Short: "Static analysis front end for Dalvik bytecode",
	Long: `Dexgraph loads the classes of an APK or dex file, translates every method
body into a register-based instruction IR and binds each call site to its target.
It provides an interactive TUI for browsing the result and commands for dumping
and exporting it.`,
	Example: `
# Browse an app interactively
dexgraph app.apk

# Resolve framework calls against an API level
dexgraph --data-dir ~/android --api 33 app.apk

# Print the canonical dump
dexgraph -n app.apk
  `,
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		absPath, err := inputPath(args[0])
		if err != nil {
			return err
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		// piped output never gets the TUI or colours
		if !term.IsTerminal(os.Stdout.Fd()) {
			noTUI = true
			os.Setenv("DEXGRAPH_NO_COLOR", "1")
		}

		if jsonOutput {
			return runJSON(cmd, cfg, absPath)
		}
		if noTUI {
			return runNoTUI(cmd, cfg, absPath)
		}

		program := tea.NewProgram(
			NewModel(cfg, absPath),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		final, err := program.Run()
		if m, ok := final.(model); ok && m.result != nil {
			m.result.Close()
		}
		if err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

// loadConfig reads the configuration file and applies the flags that were
// set explicitly on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}
	explicit, _ := cmd.Flags().GetString("config")
	cfg, err := config.Find(explicit, cwd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("framework") {
		cfg.Framework, _ = flags.GetString("framework")
	}
	if flags.Changed("api") {
		cfg.APILevel, _ = flags.GetInt("api")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("no-translate") {
		off, _ := flags.GetBool("no-translate")
		cfg.Translate = !off
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}

	dlog.Setup(cfg.LogFile, cfg.Debug)
	logging.SetLevelFromFlag(cfg.Debug)
	return cfg, nil
}

func inputPath(file string) (string, error) {
	absPath, err := pathpkg.Abs(file)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %v", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", file)
		}
		return "", fmt.Errorf("cannot access file: %v", err)
	}
	return absPath, nil
}

// analyzeFor runs analyze with the logger a command line run uses.
func analyzeFor(cmd *cobra.Command, cfg *config.Config, path string) (*analysis, error) {
	return analyze(commandContext(cmd), cfg, path, commandLogger(cmd, cfg.Debug))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func commandLogger(cmd *cobra.Command, debug bool) *log.Logger {
	l := logging.NewLoggerWithWriter(cmd.ErrOrStderr()).Logger
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

func runJSON(cmd *cobra.Command, cfg *config.Config, path string) error {
	a, err := analyzeFor(cmd, cfg, path)
	if err != nil {
		return err
	}
	defer a.Close()
	return dump.JSON(cmd.OutOrStdout(), dump.Build(a.Scope(), a.Digest, dump.Options{}))
}

func runNoTUI(cmd *cobra.Command, cfg *config.Config, path string) error {
	a, err := analyzeFor(cmd, cfg, path)
	if err != nil {
		return err
	}
	defer a.Close()
	return dump.Text(cmd.OutOrStdout(), a.Scope(), dump.Options{})
}

func Execute() {
	// fang's markdown rendering is bypassed for --no-tui and for piped output
	noTUI := false
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" || arg == "--json" || arg == "-j" {
			noTUI = true
			break
		}
	}
	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	if noTUI {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
	} else {
		if err := fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		); err != nil {
			os.Exit(1)
		}
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
