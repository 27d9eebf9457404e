package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"paws/internal/config"
	pawsapi "paws/pkg/paws"
)

type globalFlags struct {
	configPath string
	verbosity  string
	outdir     string
	store      string
	location   string
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	return runWithOutput(ctx, args, os.Stdout)
}

func runWithOutput(ctx context.Context, args []string, out io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "pawsctl",
		Short:         "Assemble semi-weakly supervised models and their training configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(flags.verbosity, cmd.ErrOrStderr())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a YAML run configuration")
	pf.StringVar(&flags.verbosity, "verbosity", "info", "log level: debug, info, warning or error")
	pf.StringVar(&flags.outdir, "outdir", "", "output directory (overrides config)")
	pf.StringVar(&flags.store, "store", "", "model store backend: file, memory or sqlite (overrides config)")
	pf.StringVar(&flags.location, "store-location", "", "store root directory or sqlite database path")

	root.AddCommand(
		newInitCmd(flags),
		newImportCmd(flags),
		newBuildCmd(flags),
		newTrainConfigCmd(flags),
		newTraceCmd(flags),
		newEvaluateCmd(flags),
	)
	return root
}

func setupLogging(verbosity string, w io.Writer) error {
	level := zerolog.InfoLevel
	switch strings.ToLower(verbosity) {
	case "debug":
		level = zerolog.DebugLevel
	case "", "info":
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		return fmt.Errorf("unknown verbosity: %s", verbosity)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: true})
	return nil
}

// openClient loads the configuration, applies flag overrides and initializes the store.
func openClient(ctx context.Context, flags *globalFlags) (*pawsapi.Client, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.outdir != "" {
		cfg.Outdir = flags.outdir
	}
	if flags.store != "" {
		cfg.Store.Kind = flags.store
	}
	if flags.location != "" {
		cfg.Store.Location = flags.location
	}
	if flags.verbosity != "" {
		cfg.Verbosity = flags.verbosity
	}
	client, err := pawsapi.New(pawsapi.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
