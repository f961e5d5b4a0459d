package deployment

//go:generate mockgen -source=./deployment.go --destination=./deployment_mock_test.go --package=deployment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klothoplatform/fabric/pkg/fabric"
	fabric_errs "github.com/klothoplatform/fabric/pkg/fabric/errors"
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/logging"
	"github.com/klothoplatform/fabric/pkg/metrics"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/sanitization/azure"
	"github.com/klothoplatform/fabric/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type (
	// GroupDeleter deletes a stack's resource group without going through the stack.
	GroupDeleter interface {
		DeleteGroup(ctx context.Context, creds provision.Credentials, name string) (bool, error)
	}
)

type (
	// Engine owns the preview, up and destroy lifecycle of stacks. Operations on the same
	// (project, env) are serialized; different stacks proceed concurrently.
	Engine struct {
		cfg         Config
		provisioner provision.Engine
		validator   *validation.Validator
		compiler    *fabric.Compiler
		deleter     GroupDeleter
		metrics     *metrics.Metrics
		now         func() time.Time

		mu       sync.Mutex // guards the following fields
		locks    map[stackID]*semaphore.Weighted
		statuses map[stackID]Status
	}

	// stackID keys per-stack state. Stack names join project and env with a hyphen, which is
	// ambiguous when either contains one.
	stackID struct {
		Project, Env string
	}

	// Config is resolved once at startup.
	Config struct {
		// DefaultLocation is used when a graph names neither a location nor a region.
		DefaultLocation string
		// Credentials are used by requests that do not carry their own.
		Credentials *provision.Credentials
	}

	Option func(*Engine)
)

func WithGroupDeleter(d GroupDeleter) Option {
	return func(e *Engine) {
		e.deleter = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(cfg Config, provisioner provision.Engine, validator *validation.Validator, compiler *fabric.Compiler, opts ...Option) *Engine {
	if cfg.DefaultLocation == "" {
		cfg.DefaultLocation = fabric.DefaultLocation
	}
	e := &Engine{
		cfg:         cfg,
		provisioner: provisioner,
		validator:   validator,
		compiler:    compiler,
		now:         time.Now,
		locks:       make(map[stackID]*semaphore.Weighted),
		statuses:    make(map[stackID]Status),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks g without compiling it.
func (e *Engine) Validate(g *ir.Graph) validation.Report {
	return e.validator.Validate(g)
}

// Kinds lists the node kinds the registry supports.
func (e *Engine) Kinds() []KindInfo {
	kinds := e.compiler.Registry.SupportedKinds()
	infos := make([]KindInfo, len(kinds))
	for i, k := range kinds {
		infos[i] = KindInfo{Kind: k, Domain: k.Domain(), Aliases: k.Aliases()}
	}
	return infos
}

// Status is the last persisted status of a stack known to this engine.
func (e *Engine) Status(project, env string) Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.statuses[stackID{Project: project, Env: env}]; ok {
		return s
	}
	return StatusNone
}

func (e *Engine) stack(project, env, location string, creds *provision.Credentials) provision.Stack {
	if creds == nil {
		creds = e.cfg.Credentials
	}
	return provision.Stack{Project: project, Env: env, Location: location, Credentials: creds}
}

// acquire waits for exclusive use of a stack.
func (e *Engine) acquire(ctx context.Context, stack provision.Stack) (func(), error) {
	e.mu.Lock()
	id := stackID{Project: stack.Project, Env: stack.Env}
	sem, ok := e.locks[id]
	if !ok {
		sem = semaphore.NewWeighted(1)
		e.locks[id] = sem
	}
	e.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, &StackBusyError{Stack: stack.Name(), Err: err}
	}
	return func() { sem.Release(1) }, nil
}

func (e *Engine) transition(stack provision.Stack, next Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := stackID{Project: stack.Project, Env: stack.Env}
	current, ok := e.statuses[key]
	if !ok {
		current = StatusNone
	}
	updated, err := transition(current, next)
	if err != nil {
		return err
	}
	e.statuses[key] = updated
	e.metrics.StateTransition(string(current), string(next))
	return nil
}

// observe records the outcome of an operation.
func (e *Engine) observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(fabric_errs.InternalErrCode)
		if fe, ok := fabric_errs.AsFabricError(err); ok {
			outcome = string(fe.ErrorCode())
		}
	}
	e.metrics.ObserveOperation(op, metrics.Label(outcome), e.now().Sub(start))
}

// compile validates then compiles g onto a fresh plan.
func (e *Engine) compile(ctx context.Context, g *ir.Graph, stack provision.Stack) (*provision.Plan, *fabric.Compilation, error) {
	log := logging.GetLogger(ctx)

	compiler := *e.compiler
	compiler.Location = e.cfg.DefaultLocation
	if stack.Credentials != nil && stack.Credentials.TenantID != "" {
		compiler.TenantID = stack.Credentials.TenantID
	}

	plan := provision.NewPlan()
	comp, err := compiler.ApplyIR(g, plan)
	if err != nil {
		return nil, nil, err
	}
	e.metrics.Diagnostics(len(comp.Diagnostics))
	log.Debug("compiled graph",
		logging.GraphField(g),
		zap.Int("resources", len(plan.Resources())),
		zap.Int("bindings", len(comp.Bindings)),
		zap.Int("diagnostics", len(comp.Diagnostics)),
	)
	return plan, comp, nil
}

// Preview validates g and computes the changes an up would make. An invalid graph is reported
// in the result rather than as an error, and nothing is compiled.
func (e *Engine) Preview(ctx context.Context, g *ir.Graph, creds *provision.Credentials) (result *PreviewResult, err error) {
	start := e.now()
	defer func() { e.observe("preview", start, err) }()

	stack := e.stack(g.Project, g.Env, g.ResolveLocation(e.cfg.DefaultLocation), creds)
	ctx, log := logging.With(ctx, zap.Object("stack", stack))

	report := e.validator.Validate(g)
	result = &PreviewResult{Preview: true, Stack: stack.Name(), Validation: report}
	if !report.Valid {
		log.Info("graph is invalid, skipping preview", zap.Strings("errors", report.Errors))
		return result, nil
	}

	release, err := e.acquire(ctx, stack)
	if err != nil {
		return nil, err
	}
	defer release()

	plan, comp, err := e.compile(ctx, g, stack)
	if err != nil {
		return nil, err
	}
	result.Diagnostics = diagnosticMessages(comp.Diagnostics)

	changes, err := e.provisioner.Preview(ctx, stack, plan)
	if err != nil {
		return nil, classify("preview", stack.Name(), err)
	}
	result.ChangeSummary = changes
	if err := e.transition(stack, StatusPreviewed); err != nil {
		return nil, err
	}
	log.Info("previewed stack", zap.Stringer("changes", changes))
	return result, nil
}

// Up converges real infrastructure to g and returns its outputs as plain data.
func (e *Engine) Up(ctx context.Context, g *ir.Graph, creds *provision.Credentials) (result *UpResult, err error) {
	start := e.now()
	defer func() { e.observe("up", start, err) }()

	stack := e.stack(g.Project, g.Env, g.ResolveLocation(e.cfg.DefaultLocation), creds)
	ctx, log := logging.With(ctx, zap.Object("stack", stack))

	report := e.validator.Validate(g)
	if !report.Valid {
		return nil, &validation.ValidationError{Report: report}
	}

	release, err := e.acquire(ctx, stack)
	if err != nil {
		return nil, err
	}
	defer release()

	plan, comp, err := e.compile(ctx, g, stack)
	if err != nil {
		return nil, err
	}

	res, err := e.provisioner.Converge(ctx, stack, plan)
	if err != nil {
		return nil, classify("up", stack.Name(), err)
	}
	outputs, err := provision.UnwrapAll(res.Outputs)
	if err != nil {
		return nil, fmt.Errorf("could not resolve outputs of %s: %w", stack, err)
	}
	if err := e.transition(stack, StatusApplied); err != nil {
		return nil, err
	}
	e.metrics.ResourcesChanged(changeCounts(res.Changes))
	log.Info("converged stack", zap.Stringer("changes", res.Changes), zap.Duration("duration", res.Duration))

	return &UpResult{
		Stack:   stack.Name(),
		Outputs: outputs,
		Summary: Summary{
			Resources:   res.Changes,
			DurationSec: res.Duration.Seconds(),
		},
		Validation:  report,
		Diagnostics: diagnosticMessages(comp.Diagnostics),
	}, nil
}

// Destroy deletes every resource of a stack and then the stack record. When the stack has no
// record, or the engine-level destroy fails, the resource group is deleted directly if credentials
// are available. That fallback is attempted once.
func (e *Engine) Destroy(ctx context.Context, project, env string, creds *provision.Credentials) (result *DestroyResult, err error) {
	start := e.now()
	defer func() { e.observe("destroy", start, err) }()

	stack := e.stack(project, env, "", creds)
	ctx, log := logging.With(ctx, zap.Object("stack", stack))

	release, err := e.acquire(ctx, stack)
	if err != nil {
		return nil, err
	}
	defer release()

	changes, err := e.provisioner.Destroy(ctx, stack)
	switch {
	case errors.Is(err, provision.ErrStackNotFound):
		if !stack.Credentials.Complete() {
			log.Info("stack not found and no credentials, nothing to destroy")
			return &DestroyResult{
				Stack:   stack.Name(),
				Method:  MethodNone,
				Message: fmt.Sprintf("Stack %s was not found and no credentials were provided, so nothing was destroyed.", stack),
			}, nil
		}
		return e.deleteGroup(ctx, stack, "stack not found", err)

	case err != nil:
		log.Warn("stack destroy failed", zap.Error(err))
		if !stack.Credentials.Complete() {
			return nil, &PartialDestroyError{Stack: stack.Name(), Err: err}
		}
		return e.deleteGroup(ctx, stack, "stack destroy failed", err)
	}

	message := fmt.Sprintf("Stack %s destroyed.", stack)
	if err := e.provisioner.RemoveStack(ctx, stack); err != nil {
		log.Warn("could not remove stack record", zap.Error(err))
		message = fmt.Sprintf("Stack %s destroyed, but its record could not be removed: %v", stack, err)
	}
	if err := e.transition(stack, StatusDestroyed); err != nil {
		return nil, err
	}
	e.metrics.ResourcesChanged(changeCounts(changes))
	return &DestroyResult{
		Destroyed: true,
		Stack:     stack.Name(),
		Method:    MethodStack,
		Message:   message,
		Summary:   changes,
	}, nil
}

// deleteGroup is the direct deletion fallback of Destroy. cause is why the stack path was left.
func (e *Engine) deleteGroup(ctx context.Context, stack provision.Stack, reason string, cause error) (*DestroyResult, error) {
	log := logging.GetLogger(ctx)
	if e.deleter == nil {
		return nil, &PartialDestroyError{Stack: stack.Name(), Err: cause, Fallback: errors.New("direct deletion is not configured")}
	}

	group := azure.ResourceGroupName(stack.Project, stack.Env)
	log.Info("falling back to direct resource group deletion", zap.String("reason", reason), zap.String("resource_group", group))
	deleted, err := e.deleter.DeleteGroup(ctx, *stack.Credentials, group)
	if err != nil || !deleted {
		if err == nil {
			err = fmt.Errorf("resource group %s was not deleted", group)
		}
		return nil, &PartialDestroyError{Stack: stack.Name(), Err: cause, Fallback: err}
	}

	if !errors.Is(cause, provision.ErrStackNotFound) {
		if err := e.provisioner.RemoveStack(ctx, stack); err != nil {
			log.Warn("could not remove stack record", zap.Error(err))
		}
	}
	if err := e.transition(stack, StatusDestroyed); err != nil {
		return nil, err
	}
	return &DestroyResult{
		Destroyed: true,
		Stack:     stack.Name(),
		Method:    MethodResourceGroup,
		Message:   fmt.Sprintf("Resource group %s was deleted directly (%s).", group, reason),
	}, nil
}

func changeCounts(c provision.ChangeSummary) map[string]int {
	counts := make(map[string]int, len(c))
	for op, n := range c {
		counts[string(op)] = n
	}
	return counts
}
