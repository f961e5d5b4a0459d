package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	clicommon "github.com/klothoplatform/fabric/pkg/cli_common"
	"github.com/klothoplatform/fabric/pkg/cli_config"
	"github.com/lithammer/dedent"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type cliConfig struct {
	clicommon.CommonConfig
	configPath  string
	engine      string
	stateDir    string
	output      string
	showSecrets bool
	noProgress  bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	cfg cliConfig
	fs  afero.Fs
	// isTerminal reports whether progress bars may be drawn on w.
	isTerminal func(w io.Writer) bool
}

func newApp(fs afero.Fs) *app {
	return &app{fs: fs, isTerminal: isTerminal}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fabric",
		Short: "Compile application graphs into Azure deployments",
		Long: dedent.Dedent(`
			fabric turns an application graph (nodes of abstract kinds joined by
			intent edges) into Azure resources and deploys them as one stack per
			project and environment.

			Graphs are read from YAML, JSON or TOML files.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	clicommon.SetupRoot(root, &a.cfg.CommonConfig)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfg.configPath, "config", "c", cli_config.EnvVar("FABRIC_CONFIG").GetOr(""), "Config file (default: fabric.yaml in . or ~/.fabric)")
	flags.StringVar(&a.cfg.engine, "engine", "", "Provisioning engine: pulumi or local (overrides config)")
	flags.StringVar(&a.cfg.stateDir, "state-dir", "", "State directory (overrides config)")
	flags.StringVarP(&a.cfg.output, "output", "o", outputText, "Output format: text, json or yaml")
	flags.BoolVar(&a.cfg.showSecrets, "show-secrets", false, "Print sensitive outputs in text reports")
	flags.BoolVar(&a.cfg.noProgress, "no-progress", false, "Disable progress bars")

	root.AddCommand(
		a.validateCmd(),
		a.previewCmd(),
		a.upCmd(),
		a.destroyCmd(),
		a.graphCmd(),
		a.kindsCmd(),
		a.serveCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(afero.NewOsFs()).rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errInvalidGraph) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}
