package fabric

import (
	"fmt"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/sanitization"
)

type (
	// Pair is an ordered (source, destination) kind pair.
	Pair struct {
		Source      Kind
		Destination Kind
	}

	// Strategy is one of Structural, DescriptiveExport or Unsupported.
	Strategy interface {
		strategy()
		String() string
	}

	// Structural wires the two resources together with a dedicated integration resource.
	Structural struct {
		Name string
		Bind func(edge ir.Edge, src, dst *Record, plan *provision.Plan) (*provision.Resource, error)
	}

	// Provider selects which side of an edge publishes its attributes.
	Provider int

	// DescriptiveExport publishes the provider's exports under keys scoped to the edge so the
	// consumer can be configured with them later.
	DescriptiveExport struct {
		Provider Provider
	}

	Unsupported struct {
		Reason string
	}

	// Matrix maps every ordered kind pair to its binding strategy. Pairs missing from the matrix
	// are treated as unsupported.
	Matrix map[Pair]Strategy

	// Binding is what resolving one edge produced.
	Binding struct {
		Edge     ir.Edge
		Strategy Strategy
		// Resource is the integration resource of a structural binding.
		Resource *provision.Resource
		// Keys are the output keys published by a descriptive export.
		Keys []string
	}

	// Diagnostic records an edge that was skipped. It is never an error.
	Diagnostic struct {
		Edge   ir.Edge
		Reason string
	}
)

const (
	Source Provider = iota
	Destination
)

func (Structural) strategy()        {}
func (DescriptiveExport) strategy() {}
func (Unsupported) strategy()       {}

func (s Structural) String() string {
	return "structural:" + s.Name
}

func (s DescriptiveExport) String() string {
	if s.Provider == Destination {
		return "export:destination"
	}
	return "export:source"
}

func (s Unsupported) String() string {
	return "unsupported"
}

func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.Source, p.Destination)
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Edge, d.Reason)
}

// DefaultMatrix returns the binding table for every ordered pair of AllKinds.
func DefaultMatrix() Matrix {
	m := make(Matrix, len(AllKinds)*len(AllKinds))
	for _, src := range AllKinds {
		for _, dst := range AllKinds {
			pair := Pair{Source: src, Destination: dst}
			switch {
			case src == dst:
				m[pair] = Unsupported{Reason: fmt.Sprintf("no connector between two %s nodes", src)}
			case src == VirtualMachine:
				m[pair] = DescriptiveExport{Provider: Destination}
			default:
				m[pair] = DescriptiveExport{Provider: Source}
			}
		}
	}
	m[Pair{Source: ObjectStorage, Destination: MessageQueue}] = Structural{
		Name: "blob-created-events",
		Bind: bindBlobEvents,
	}
	return m
}

// Lookup returns the strategy for a pair, Unsupported when the pair has no entry.
func (m Matrix) Lookup(pair Pair) Strategy {
	if s, ok := m[pair]; ok {
		return s
	}
	return Unsupported{Reason: fmt.Sprintf("no connector for %s", pair)}
}

// Connect resolves one edge. Skipped edges produce a Diagnostic; an error is only returned when
// a declaration or output key conflicts with an existing one.
func (m Matrix) Connect(
	edge ir.Edge,
	src, dst *Record,
	outputs *Outputs,
	plan *provision.Plan,
) (*Binding, *Diagnostic, error) {
	if intent := edge.EffectiveIntent(); intent != ir.IntentNotify {
		return nil, &Diagnostic{Edge: edge, Reason: fmt.Sprintf("unsupported intent %q", intent)}, nil
	}
	if src == nil || dst == nil {
		missing := edge.From
		if src != nil {
			missing = edge.To
		}
		return nil, &Diagnostic{Edge: edge, Reason: fmt.Sprintf("no resource record for node %q", missing)}, nil
	}

	pair := Pair{Source: src.Kind, Destination: dst.Kind}
	switch s := m.Lookup(pair).(type) {
	case Structural:
		res, err := s.Bind(edge, src, dst, plan)
		if err != nil {
			return nil, nil, fmt.Errorf("could not bind %s: %w", edge, err)
		}
		return &Binding{Edge: edge, Strategy: s, Resource: res}, nil, nil

	case DescriptiveExport:
		provider := src
		if s.Provider == Destination {
			provider = dst
		}
		b := &Binding{Edge: edge, Strategy: s}
		for _, attr := range provider.Exports {
			key := BindKey(edge, attr.Name)
			if err := outputs.Add(key, attr.Value); err != nil {
				return nil, nil, err
			}
			b.Keys = append(b.Keys, key)
		}
		return b, nil, nil

	case Unsupported:
		return nil, &Diagnostic{Edge: edge, Reason: s.Reason}, nil

	default:
		return nil, nil, fmt.Errorf("unknown strategy %T for %s", s, pair)
	}
}

// BindKey is the output key of an attribute exported along an edge. It is scoped to the
// destination and then the source so that two sources feeding one destination never collide.
func BindKey(edge ir.Edge, attr string) string {
	return fmt.Sprintf("bind-%s-%s-%s", sanitization.Sanitize(edge.To), sanitization.Sanitize(edge.From), attr)
}

// SubscriptionName is the name of the event subscription declared for a structural binding.
func SubscriptionName(edge ir.Edge) string {
	return fmt.Sprintf("egsub-%s-to-%s", sanitization.Sanitize(edge.From), sanitization.Sanitize(edge.To))
}

// bindBlobEvents subscribes the destination queue to blob-created events of the source account.
func bindBlobEvents(edge ir.Edge, src, dst *Record, plan *provision.Plan) (*provision.Resource, error) {
	account := src.Resource("account")
	queue := dst.Resource("queue")
	if account == nil || queue == nil {
		return nil, fmt.Errorf("expected a storage account and a queue, got %s and %s", src.Kind, dst.Kind)
	}
	name := SubscriptionName(edge)
	return plan.Declare(TypeEventSubscription, name, map[string]any{
		"scope": account.ID(),
		"destination": map[string]any{
			"endpointType": "ServiceBusQueue",
			"resourceId":   queue.ID(),
		},
		"eventDeliverySchema": "EventGridSchema",
		"filter": map[string]any{
			"includedEventTypes": []any{"Microsoft.Storage.BlobCreated"},
		},
	})
}
