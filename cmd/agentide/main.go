// Package main is the entry point for the agentide workspace server.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/agentide/internal/analyzer"
	"github.com/dshills/agentide/internal/config"
	"github.com/dshills/agentide/internal/terminal"
	"github.com/dshills/agentide/internal/workspace"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	configPath string
	rootDir    string
	logLevel   string
)

func main() {
	// A local .env can carry AGENTIDE_* overrides; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "agentide",
		Short:         "Agent-facing programmatic IDE core",
		Long:          "agentide serves an action-dispatch interface over document buffers,\nan external code analyzer, and a filtered command executor.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	root.PersistentFlags().StringVarP(&rootDir, "workspace", "w", "", "workspace/project directory")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd(), renderCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger, and acquires the
// workspace through the process-wide registry.
func setup(ctx context.Context) (*workspace.Workspace, *workspace.Registry, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if rootDir != "" {
		cfg.Project.Root = rootDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid log level %q", cfg.Log.Level)
	}
	log.SetLevel(level)

	opts := []workspace.Option{
		workspace.WithLogger(log),
		workspace.WithMaxActiveDocuments(cfg.Documents.MaxActive),
		workspace.WithUndoDepth(cfg.Documents.UndoDepth),
		workspace.WithHeaders(cfg.Headers),
	}
	if !cfg.Documents.WholeLineEdits {
		opts = append(opts, workspace.WithEditPolicy(workspace.PolicyUnrestricted))
	}
	if cfg.Analyzer.Enabled() {
		session := analyzer.NewSession(analyzer.Config{
			Command:  cfg.Analyzer.Command,
			Args:     cfg.Analyzer.Args,
			Env:      cfg.Analyzer.Env,
			RootPath: cfg.Project.Root,
			Timeout:  cfg.Analyzer.Timeout(),
		}, log)
		opts = append(opts, workspace.WithAnalyzer(session))
	}

	var filter terminal.Filter
	if len(cfg.Terminal.Allow) > 0 {
		filter = terminal.NewAllowFilter(cfg.Terminal.Allow)
	} else {
		filter = terminal.NewDenyFilter(cfg.Terminal.Deny)
	}
	opts = append(opts, workspace.WithExecutor(
		terminal.NewExecutor(filter, cfg.Project.Root, cfg.Terminal.Timeout(), log)))

	registry := workspace.NewRegistry()
	ws, err := registry.Acquire(ctx, cfg.Project.Root, cfg.Project.Name, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return ws, registry, log, nil
}

// serveCmd reads one JSON-encoded action per stdin line and writes one
// JSON-encoded result per line, until EOF or a terminal result.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the action interface over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			ws, registry, log, err := setup(ctx)
			if err != nil {
				return err
			}
			defer registry.Shutdown(context.Background())

			log.WithField("root", ws.RootDir()).Info("serving actions on stdio")

			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			encoder := json.NewEncoder(os.Stdout)

			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}

				var action workspace.Action
				var result workspace.Result
				if err := json.Unmarshal(line, &action); err != nil {
					result = workspace.Result{Payload: "malformed action: " + err.Error()}
				} else {
					result = ws.Dispatch(ctx, action)
				}

				if err := encoder.Encode(result); err != nil {
					return fmt.Errorf("write result: %w", err)
				}
				if result.Terminal {
					break
				}
				if ctx.Err() != nil {
					break
				}
			}
			return scanner.Err()
		},
	}
}

// renderCmd prints the workspace view once and exits.
func renderCmd() *cobra.Command {
	var open []string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the workspace view",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			ws, registry, _, err := setup(ctx)
			if err != nil {
				return err
			}
			defer registry.Shutdown(context.Background())

			for _, path := range open {
				if _, err := ws.Open(path); err != nil {
					return err
				}
			}
			fmt.Print(ws.Render(ctx))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&open, "open", nil, "files to open before rendering")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agentide %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
			fmt.Printf("Built: %s\n", date)
		},
	}
}
