package local

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/alitto/pond"
	"github.com/klothoplatform/fabric/pkg/logging"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/r3labs/diff"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type (
	// Engine is an in-process provision.Engine. It simulates resource creation deterministically
	// and keeps one YAML record per stack under its state directory.
	Engine struct {
		fs      afero.Fs
		dir     string
		workers int
		fault   FaultFunc
		now     func() time.Time
	}

	// FaultFunc lets callers make the creation or update of a resource fail.
	FaultFunc func(r *provision.Resource) error

	Option func(*Engine)

	// step is the planned change of one resource.
	step struct {
		resource *provision.Resource
		op       provision.Op
		id       string
		stored   map[string]any
		changes  diff.Changelog
	}
)

var _ provision.Engine = (*Engine)(nil)

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithFault(f FaultFunc) Option {
	return func(e *Engine) {
		e.fault = f
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(fs afero.Fs, stateDir string, opts ...Option) *Engine {
	e := &Engine{
		fs:      fs,
		dir:     filepath.Join(stateDir, "local"),
		workers: 5,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Preview(ctx context.Context, stack provision.Stack, plan *provision.Plan) (provision.ChangeSummary, error) {
	summary, _, _, err := e.run(ctx, stack, plan, false)
	return summary, err
}

func (e *Engine) Converge(ctx context.Context, stack provision.Stack, plan *provision.Plan) (*provision.ConvergeResult, error) {
	start := e.now()
	summary, sim, steps, err := e.run(ctx, stack, plan, true)
	if err != nil {
		return nil, err
	}

	rec := &stackRecord{
		Project:  stack.Project,
		Env:      stack.Env,
		Location: stack.Location,
		Updated:  e.now().UTC(),
	}
	for _, s := range steps {
		if s.op == provision.OpDelete {
			continue
		}
		rec.Resources = append(rec.Resources, resourceRecord{
			URN:    s.resource.URN(),
			Type:   s.resource.Type,
			Name:   s.resource.Name,
			ID:     s.id,
			Inputs: s.stored,
		})
	}
	if err := e.save(stack, rec); err != nil {
		return nil, fmt.Errorf("could not save state of %s: %w", stack, err)
	}

	outputs := make(map[string]provision.Value, len(plan.Exports()))
	for _, key := range plan.ExportKeys() {
		v, err := sim.output(plan.Exports()[key])
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", key, err)
		}
		outputs[key] = v
	}
	return &provision.ConvergeResult{
		Outputs:  outputs,
		Changes:  summary,
		Duration: e.now().Sub(start),
	}, nil
}

func (e *Engine) Destroy(ctx context.Context, stack provision.Stack) (provision.ChangeSummary, error) {
	log := logging.GetLogger(ctx).With(zap.Object("stack", stack))
	rec, err := e.load(stack)
	if err != nil {
		return nil, err
	}
	summary := provision.ChangeSummary{}
	for i := len(rec.Resources) - 1; i >= 0; i-- {
		log.Debug("deleting resource", zap.String("urn", rec.Resources[i].URN))
		summary[provision.OpDelete]++
	}
	rec.Resources = nil
	rec.Updated = e.now().UTC()
	if err := e.save(stack, rec); err != nil {
		return nil, err
	}
	return summary, nil
}

func (e *Engine) RemoveStack(ctx context.Context, stack provision.Stack) error {
	if _, err := e.load(stack); err != nil {
		return err
	}
	return e.fs.Remove(e.recordPath(stack))
}

// run walks the plan wave by wave, resolving inputs against simulated attributes and comparing
// them with the stack's record. With apply set, faults are injected as provider errors.
func (e *Engine) run(
	ctx context.Context,
	stack provision.Stack,
	plan *provision.Plan,
	apply bool,
) (provision.ChangeSummary, *simulator, []*step, error) {
	log := logging.GetLogger(ctx).With(zap.Object("stack", stack))

	previous := map[string]resourceRecord{}
	rec, err := e.load(stack)
	switch {
	case err == nil:
		previous = rec.byURN()
	case !isNotFound(err):
		return nil, nil, nil, err
	}

	ws, err := waves(plan)
	if err != nil {
		return nil, nil, nil, err
	}

	differ, err := diff.NewDiffer(diff.SliceOrdering(true))
	if err != nil {
		return nil, nil, nil, err
	}

	sim := newSimulator(stack)
	pool := pond.New(e.workers, 1000, pond.Strategy(pond.Lazy()))
	defer pool.StopAndWait()

	status := "Previewing stack"
	if apply {
		status = "Deploying stack"
	}
	progress := provision.GetProgress(ctx)

	var (
		mu    sync.Mutex
		steps []*step
		done  int
	)
	for i, wave := range ws {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		group, gctx := pool.GroupContext(ctx)
		for _, r := range wave {
			r := r
			group.Submit(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := e.plan(sim, differ, r, previous)
				if err != nil {
					return err
				}
				if apply && s.op != provision.OpSame && e.fault != nil {
					if err := e.fault(r); err != nil {
						return fmt.Errorf("%s %s: %w", s.op, r, err)
					}
				}
				log.Debug("planned resource",
					zap.String("urn", r.URN()),
					zap.String("op", string(s.op)),
					zap.Int("changed_inputs", len(s.changes)),
				)
				mu.Lock()
				steps = append(steps, s)
				mu.Unlock()
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, nil, nil, err
		}
		done += len(wave)
		progress.Update(status, done, len(plan.Resources()))
		log.Debug("wave complete", zap.Int("wave", i), zap.Int("resources", len(wave)))
	}
	progress.Complete(status)

	// keep steps in wave order, so the record lists dependencies before dependents
	ordered := make([]*step, 0, len(steps)+len(previous))
	byURN := make(map[string]*step, len(steps))
	for _, s := range steps {
		byURN[s.resource.URN()] = s
	}
	for _, wave := range ws {
		for _, r := range wave {
			ordered = append(ordered, byURN[r.URN()])
		}
	}

	summary := provision.ChangeSummary{}
	for _, s := range ordered {
		summary[s.op]++
	}
	if rec != nil {
		for _, old := range rec.Resources {
			if _, ok := plan.Resource(old.URN); !ok {
				ordered = append(ordered, &step{
					resource: &provision.Resource{Type: old.Type, Name: old.Name},
					op:       provision.OpDelete,
					id:       old.ID,
				})
				summary[provision.OpDelete]++
			}
		}
	}
	log.Info("planned changes", zap.Stringer("changes", summary))
	return summary, sim, ordered, nil
}

// plan resolves r and decides what converging it takes.
func (e *Engine) plan(sim *simulator, differ *diff.Differ, r *provision.Resource, previous map[string]resourceRecord) (*step, error) {
	revealed, err := sim.resolveProps(r, true)
	if err != nil {
		return nil, err
	}
	stored, err := sim.resolveProps(r, false)
	if err != nil {
		return nil, err
	}
	s := &step{resource: r, stored: stored, id: sim.create(r, revealed)}

	old, ok := previous[r.URN()]
	if !ok {
		s.op = provision.OpCreate
		return s, nil
	}
	s.changes, err = differ.Diff(normalize(old.Inputs), normalize(stored))
	if err != nil {
		return nil, fmt.Errorf("could not diff %s: %w", r, err)
	}
	s.op = provision.OpSame
	for _, c := range s.changes {
		s.op = provision.OpUpdate
		if len(c.Path) > 0 && (c.Path[0] == nameProp(r.Type) || slices.Contains(replaceOnChange, c.Path[0])) {
			s.op = provision.OpReplace
			break
		}
	}
	return s, nil
}

// normalize round-trips values through the types the YAML record decodes them into, so that a
// freshly resolved input compares equal to its stored form.
func normalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return normalize(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case int:
		return fmt.Sprint(v)
	case float32, float64:
		return fmt.Sprint(v)
	default:
		return v
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, provision.ErrStackNotFound)
}
