package provision

import (
	"errors"
	"fmt"
	"sort"
)

type (
	// Plan is the declared resource graph of one compilation. It only records declarations;
	// nothing is created until an Engine converges it.
	Plan struct {
		resources []*Resource
		byURN     map[string]*Resource
		invokes   []*Invoke
		exports   map[string]any
		keys      []string
	}

	Resource struct {
		// Type is the provider type token, e.g. "azure-native:storage:StorageAccount".
		Type string
		// Name is the logical name, unique per type within a plan.
		Name  string
		Props map[string]any
		// DependsOn lists explicit dependencies in addition to those implied by Props.
		DependsOn []*Resource
	}

	Invoke struct {
		Token string
		Args  map[string]any
	}

	ResourceOption func(*Resource)
)

var (
	ErrDuplicateResource = errors.New("resource already declared")
	ErrDuplicateExport   = errors.New("export already declared")
)

func NewPlan() *Plan {
	return &Plan{
		byURN:   make(map[string]*Resource),
		exports: make(map[string]any),
	}
}

func DependsOn(deps ...*Resource) ResourceOption {
	return func(r *Resource) {
		r.DependsOn = append(r.DependsOn, deps...)
	}
}

// Declare records a resource. Declaring the same type and name twice is an error so that two
// nodes can never silently share a provider resource.
func (p *Plan) Declare(typ, name string, props map[string]any, opts ...ResourceOption) (*Resource, error) {
	r := &Resource{Type: typ, Name: name, Props: props}
	if r.Props == nil {
		r.Props = make(map[string]any)
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, ok := p.byURN[r.URN()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateResource, r.URN())
	}
	p.byURN[r.URN()] = r
	p.resources = append(p.resources, r)
	return r, nil
}

// Invoke records a read-only provider query. Its result is only available through InvokeRef.
func (p *Plan) Invoke(token string, args map[string]any) *Invoke {
	inv := &Invoke{Token: token, Args: args}
	p.invokes = append(p.invokes, inv)
	return inv
}

// Export publishes a stack output.
func (p *Plan) Export(key string, v any) error {
	if _, ok := p.exports[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateExport, key)
	}
	p.exports[key] = v
	p.keys = append(p.keys, key)
	return nil
}

// Resources returns the declared resources in declaration order.
func (p *Plan) Resources() []*Resource {
	return p.resources
}

func (p *Plan) Resource(urn string) (*Resource, bool) {
	r, ok := p.byURN[urn]
	return r, ok
}

func (p *Plan) Invokes() []*Invoke {
	return p.invokes
}

// Exports returns the stack outputs keyed by name.
func (p *Plan) Exports() map[string]any {
	return p.exports
}

// ExportKeys returns the export keys in declaration order.
func (p *Plan) ExportKeys() []string {
	return p.keys
}

// Types returns the distinct resource types in the plan, sorted.
func (p *Plan) Types() []string {
	seen := make(map[string]struct{})
	var types []string
	for _, r := range p.resources {
		if _, ok := seen[r.Type]; !ok {
			seen[r.Type] = struct{}{}
			types = append(types, r.Type)
		}
	}
	sort.Strings(types)
	return types
}

func (r *Resource) URN() string {
	return fmt.Sprintf("%s::%s", r.Type, r.Name)
}

func (r *Resource) String() string {
	return r.URN()
}

func (r *Resource) Attr(path string) AttrRef {
	return AttrRef{Resource: r, Path: path}
}

// ID is the provider-assigned identifier of the resource.
func (r *Resource) ID() AttrRef {
	return r.Attr("id")
}

// Dependencies returns every resource r must be created after, explicit ones first.
func (r *Resource) Dependencies() []*Resource {
	deps := append([]*Resource{}, r.DependsOn...)
	seen := make(map[*Resource]struct{}, len(deps))
	for _, d := range deps {
		seen[d] = struct{}{}
	}
	for _, d := range References(r.Props) {
		if _, ok := seen[d]; !ok && d != r {
			seen[d] = struct{}{}
			deps = append(deps, d)
		}
	}
	return deps
}

func (i *Invoke) Attr(path string) InvokeRef {
	return InvokeRef{Invoke: i, Path: path}
}
