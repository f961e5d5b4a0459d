package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klothoplatform/fabric/pkg/azure"
	"github.com/klothoplatform/fabric/pkg/config"
	"github.com/klothoplatform/fabric/pkg/deployment"
	"github.com/klothoplatform/fabric/pkg/fabric"
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/metrics"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/provision/local"
	"github.com/klothoplatform/fabric/pkg/provision/stack"
	"github.com/klothoplatform/fabric/pkg/report"
	"github.com/klothoplatform/fabric/pkg/validation"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// errInvalidGraph is returned after an invalid graph's report has been printed.
var errInvalidGraph = errors.New("graph is invalid")

func exitCode(err error) int {
	var verr *validation.ValidationError
	switch {
	case errors.Is(err, errInvalidGraph), errors.As(err, &verr):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

// loadConfig reads the config file and environment, then applies the command line overrides.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.fs, a.cfg.configPath)
	if err != nil {
		return nil, err
	}
	if a.cfg.engine != "" {
		cfg.Engine = a.cfg.engine
	}
	if a.cfg.stateDir != "" {
		cfg.StateDir = a.cfg.stateDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch a.cfg.output {
	case outputText, outputJSON, outputYAML:
	default:
		return nil, fmt.Errorf("output must be one of %s, %s or %s, got: %q", outputText, outputJSON, outputYAML, a.cfg.output)
	}
	return cfg, nil
}

func (a *app) provisioner(cfg *config.Config) provision.Engine {
	if cfg.Engine == config.EngineLocal {
		return local.NewEngine(a.fs, cfg.StateDir)
	}
	return stack.NewEngine(a.fs, cfg.StateDir,
		stack.WithPassphrase(cfg.Passphrase),
		stack.WithPlugins(cfg.Plugins),
		stack.WithRefresh(cfg.Refresh),
	)
}

func (a *app) deployer(cfg *config.Config, m *metrics.Metrics) (*deployment.Engine, error) {
	registry := fabric.DefaultRegistry()
	validator, err := validation.NewValidator(cfg.Policy, registry)
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return deployment.NewEngine(
		deployment.Config{
			DefaultLocation: cfg.DefaultLocation,
			Credentials:     cfg.DefaultCredentials(),
		},
		a.provisioner(cfg),
		validator,
		fabric.NewCompiler(registry, fabric.DefaultMatrix()),
		deployment.WithGroupDeleter(azure.NewGroupDeleter()),
		deployment.WithMetrics(m),
	), nil
}

// setup loads the config and builds the deployment engine for a lifecycle command.
func (a *app) setup() (*config.Config, *deployment.Engine, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	d, err := a.deployer(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, d, nil
}

func (a *app) readGraph(path string) (*ir.Graph, error) {
	return ir.ReadFile(a.fs, path)
}

func (a *app) reportOptions(w io.Writer) report.Options {
	opts := report.Options{ShowSecrets: a.cfg.showSecrets}
	switch a.cfg.Color() {
	case "always", "on":
		opts.Color = true
	case "never", "off":
		opts.Color = false
	default:
		opts.Color = a.isTerminal(w)
	}
	return opts
}

// write prints v in the selected output format. text renders the human readable report.
func (a *app) write(cmd *cobra.Command, v any, text func(w io.Writer, opts report.Options) error) error {
	w := cmd.OutOrStdout()
	switch a.cfg.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	case outputYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err

	default:
		return text(w, a.reportOptions(w))
	}
}
