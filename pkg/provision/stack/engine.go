package stack

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/klothoplatform/fabric/pkg/logging"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optpreview"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
	"github.com/pulumi/pulumi/sdk/v3/go/common/tokens"
	"github.com/pulumi/pulumi/sdk/v3/go/common/workspace"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type (
	// Engine is a provision.Engine backed by the Pulumi automation API. Plans run as inline
	// programs and stack state is kept in a file backend under the state directory.
	Engine struct {
		fs         afero.Fs
		home       string
		passphrase string
		plugins    map[string]string
		refresh    bool
		now        func() time.Time
	}

	Option func(*Engine)
)

var _ provision.Engine = (*Engine)(nil)

// WithPlugins pins provider plugin versions by package and installs them before each operation.
func WithPlugins(versions map[string]string) Option {
	return func(e *Engine) {
		e.plugins = versions
	}
}

// WithPassphrase sets the passphrase protecting stack secrets.
func WithPassphrase(passphrase string) Option {
	return func(e *Engine) {
		e.passphrase = passphrase
	}
}

// WithRefresh refreshes stack state from the provider before each operation.
func WithRefresh(refresh bool) Option {
	return func(e *Engine) {
		e.refresh = refresh
	}
}

func NewEngine(fs afero.Fs, stateDir string, opts ...Option) *Engine {
	e := &Engine{
		fs:   fs,
		home: filepath.Join(stateDir, "pulumi"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// workspaceOptions configures the stack's project, file backend and credentials.
func (e *Engine) workspaceOptions(stack provision.Stack) ([]auto.LocalWorkspaceOption, error) {
	stateDir := filepath.Join(e.home, "state")
	if exists, err := afero.DirExists(e.fs, stateDir); !exists || err != nil {
		if err := e.fs.MkdirAll(stateDir, 0755); err != nil {
			return nil, fmt.Errorf("could not create stack state directory: %w", err)
		}
	}

	proj := auto.Project(workspace.Project{
		Name:    tokens.PackageName(stack.Project),
		Runtime: workspace.NewProjectRuntimeInfo("go", nil),
		Backend: &workspace.ProjectBackend{
			URL: "file://" + stateDir,
		},
	})
	env := map[string]string{
		"PULUMI_CONFIG_PASSPHRASE": e.passphrase,
	}
	for k, v := range stack.Credentials.EnvVars() {
		env[k] = v
	}
	return []auto.LocalWorkspaceOption{
		proj,
		auto.EnvVars(env),
		auto.PulumiHome(e.home),
		auto.SecretsProvider("passphrase"),
	}, nil
}

// initialize creates or selects the stack. Without create, a missing stack is
// provision.ErrStackNotFound.
func (e *Engine) initialize(ctx context.Context, stack provision.Stack, program pulumi.RunFunc, create bool) (auto.Stack, error) {
	log := logging.GetLogger(ctx).Named("pulumi")

	opts, err := e.workspaceOptions(stack)
	if err != nil {
		return auto.Stack{}, err
	}

	var s auto.Stack
	if create {
		s, err = auto.UpsertStackInlineSource(ctx, stack.Name(), stack.Project, program, opts...)
	} else {
		s, err = auto.SelectStackInlineSource(ctx, stack.Name(), stack.Project, program, opts...)
	}
	switch {
	case auto.IsSelectStack404Error(err):
		return auto.Stack{}, fmt.Errorf("%w: %s", provision.ErrStackNotFound, stack)
	case err != nil:
		return auto.Stack{}, fmt.Errorf("could not create or select stack %s: %w", stack, err)
	}
	log.Debug("selected stack", zap.Object("stack", stack))

	for pkg, version := range e.plugins {
		if err := s.Workspace().InstallPlugin(ctx, pkg, version); err != nil {
			return auto.Stack{}, fmt.Errorf("could not install plugin %s %s: %w", pkg, version, err)
		}
	}
	if stack.Location != "" {
		if err := s.SetConfig(ctx, "azure-native:location", auto.ConfigValue{Value: stack.Location}); err != nil {
			return auto.Stack{}, fmt.Errorf("could not set stack configuration: %w", err)
		}
	}
	return s, nil
}

func (e *Engine) Preview(ctx context.Context, stack provision.Stack, plan *provision.Plan) (provision.ChangeSummary, error) {
	log := logging.GetLogger(ctx).Named("pulumi.preview")

	s, err := e.initialize(ctx, stack, Program(plan, e.plugins), true)
	if err != nil {
		return nil, err
	}

	progress := logging.NewLoggerWriter(log, zap.InfoLevel)
	defer progress.Close()
	opts := []optpreview.Option{
		optpreview.ProgressStreams(progress),
		optpreview.EventStreams(Events(ctx, "Previewing")),
	}
	if e.refresh {
		opts = append(opts, optpreview.Refresh())
	}
	res, err := s.Preview(ctx, opts...)
	if err != nil {
		return nil, &OpError{Op: "preview", Stack: stack, Err: err}
	}
	return summarize(res.ChangeSummary), nil
}

func (e *Engine) Converge(ctx context.Context, stack provision.Stack, plan *provision.Plan) (*provision.ConvergeResult, error) {
	log := logging.GetLogger(ctx).Named("pulumi.up")
	start := e.now()

	s, err := e.initialize(ctx, stack, Program(plan, e.plugins), true)
	if err != nil {
		return nil, err
	}

	progress := logging.NewLoggerWriter(log, zap.InfoLevel)
	defer progress.Close()
	opts := []optup.Option{
		optup.ProgressStreams(progress),
		optup.EventStreams(Events(ctx, "Deploying")),
	}
	if e.refresh {
		opts = append(opts, optup.Refresh())
	}
	res, err := s.Up(ctx, opts...)
	if err != nil {
		return nil, &OpError{Op: "update", Stack: stack, Err: err}
	}
	log.Info("deployed stack", zap.Object("stack", stack))

	return &provision.ConvergeResult{
		Outputs:  outputValues(res.Outputs),
		Changes:  summaryOf(res.Summary),
		Duration: e.now().Sub(start),
	}, nil
}

func (e *Engine) Destroy(ctx context.Context, stack provision.Stack) (provision.ChangeSummary, error) {
	log := logging.GetLogger(ctx).Named("pulumi.destroy")

	s, err := e.initialize(ctx, stack, emptyProgram, false)
	if err != nil {
		return nil, err
	}

	progress := logging.NewLoggerWriter(log, zap.InfoLevel)
	defer progress.Close()
	opts := []optdestroy.Option{
		optdestroy.ProgressStreams(progress),
		optdestroy.EventStreams(Events(ctx, "Destroying")),
	}
	if e.refresh {
		opts = append(opts, optdestroy.Refresh())
	}
	res, err := s.Destroy(ctx, opts...)
	if err != nil {
		return nil, &OpError{Op: "destroy", Stack: stack, Err: err}
	}
	log.Info("destroyed stack", zap.Object("stack", stack))
	return summaryOf(res.Summary), nil
}

func (e *Engine) RemoveStack(ctx context.Context, stack provision.Stack) error {
	s, err := e.initialize(ctx, stack, emptyProgram, false)
	if err != nil {
		return err
	}
	logging.GetLogger(ctx).Named("pulumi").Info("removing stack", zap.Object("stack", stack))
	if err := s.Workspace().RemoveStack(ctx, stack.Name()); err != nil {
		return fmt.Errorf("could not remove stack %s: %w", stack, err)
	}
	return nil
}

func emptyProgram(*pulumi.Context) error {
	return nil
}
