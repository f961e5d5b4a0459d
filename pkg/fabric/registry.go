package fabric

import (
	"fmt"
	"strings"
	"sync"

	fabric_errs "github.com/klothoplatform/fabric/pkg/fabric/errors"
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

type (
	// Constructor realizes one node: it declares the node's entire resource subgraph on the plan
	// and returns the node's Record. Derived names must depend only on the node so that
	// recompiling an unchanged graph declares identical resources.
	Constructor interface {
		Kind() Kind
		Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error)
	}

	Registry struct {
		mu           sync.RWMutex
		constructors map[Kind]Constructor
	}

	UnsupportedKindError struct {
		Kind      string
		Supported []Kind
	}
)

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[Kind]Constructor)}
}

// DefaultRegistry contains a constructor for every kind in AllKinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []Constructor{
		storageConstructor{},
		queueConstructor{},
		containerConstructor{},
		vmConstructor{},
		functionConstructor{},
		sqlConstructor{},
		cosmosConstructor{},
		gatewayConstructor{},
		vaultConstructor{},
		telemetryConstructor{},
		networkConstructor{},
	} {
		r.Register(c.Kind(), c)
	}
	return r
}

// Register adds or replaces the constructor for kind.
func (r *Registry) Register(kind Kind, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[kind] = c
}

// CreatorFor returns the constructor for a kind tag, resolving legacy aliases.
func (r *Registry) CreatorFor(kind string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.constructors[NormalizeKind(kind)]; ok {
		return c, nil
	}
	return nil, &UnsupportedKindError{Kind: kind, Supported: r.supportedKinds()}
}

// SupportedKinds returns the registered kinds, sorted.
func (r *Registry) SupportedKinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.supportedKinds()
}

func (r *Registry) supportedKinds() []Kind {
	kinds := make([]Kind, 0, len(r.constructors))
	for k := range r.constructors {
		kinds = append(kinds, k)
	}
	sortKinds(kinds)
	return kinds
}

func (r *Registry) Supports(kind string) bool {
	_, err := r.CreatorFor(kind)
	return err == nil
}

func (e *UnsupportedKindError) Error() string {
	supported := make([]string, len(e.Supported))
	for i, k := range e.Supported {
		supported[i] = string(k)
	}
	return fmt.Sprintf("Unsupported kind: %s. Supported kinds: %s", e.Kind, strings.Join(supported, ", "))
}

func (e *UnsupportedKindError) ErrorCode() fabric_errs.ErrorCode {
	return fabric_errs.UnsupportedKindCode
}

func (e *UnsupportedKindError) ToJSONMap() map[string]any {
	return map[string]any{
		"kind":      e.Kind,
		"supported": e.Supported,
	}
}
