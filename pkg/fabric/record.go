package fabric

import (
	"errors"
	"fmt"
	"sort"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

type (
	// Scope is the enclosing deployment context shared by every constructor.
	Scope struct {
		ResourceGroup *provision.Resource
		Location      string
		TenantID      string
	}

	// Record is what realizing a node produced. It lives only for one compilation.
	Record struct {
		Node    ir.Node
		Kind    Kind
		Logical string
		// Resources holds the declared resources by role (e.g. "account", "queue").
		Resources map[string]*provision.Resource
		// Outputs are published as <domain>-<logical>-<name>.
		Outputs []Attribute
		// Exports are the attributes an edge publishes when this node provides them.
		Exports []Attribute
	}

	Attribute struct {
		Name  string
		Value any
	}

	// Outputs is the flat output namespace of a compilation. Keys are never overwritten.
	Outputs struct {
		values map[string]any
		keys   []string
	}
)

var ErrOutputCollision = errors.New("output key collision")

// ResourceGroupName is the resource group name as an input for resource properties.
func (s Scope) ResourceGroupName() provision.AttrRef {
	return s.ResourceGroup.Attr("name")
}

func newRecord(node ir.Node, kind Kind, logical string) *Record {
	return &Record{
		Node:      node,
		Kind:      kind,
		Logical:   logical,
		Resources: make(map[string]*provision.Resource),
	}
}

func (r *Record) add(role string, res *provision.Resource) *provision.Resource {
	r.Resources[role] = res
	return res
}

func (r *Record) Resource(role string) *provision.Resource {
	return r.Resources[role]
}

func (r *Record) output(name string, v any) {
	r.Outputs = append(r.Outputs, Attribute{Name: name, Value: v})
}

func (r *Record) export(name string, v any) {
	r.Exports = append(r.Exports, Attribute{Name: name, Value: v})
}

// OutputKey is the namespace key of one of the record's outputs.
func (r *Record) OutputKey(name string) string {
	return fmt.Sprintf("%s-%s-%s", r.Kind.Domain(), r.Logical, name)
}

func NewOutputs() *Outputs {
	return &Outputs{values: make(map[string]any)}
}

// Add inserts a new key. An existing key is a collision and is reported rather than replaced.
func (o *Outputs) Add(key string, v any) error {
	if _, ok := o.values[key]; ok {
		return fmt.Errorf("%w: %s", ErrOutputCollision, key)
	}
	o.values[key] = v
	o.keys = append(o.keys, key)
	return nil
}

func (o *Outputs) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Outputs) Keys() []string {
	return o.keys
}

func (o *Outputs) SortedKeys() []string {
	keys := append([]string{}, o.keys...)
	sort.Strings(keys)
	return keys
}

func (o *Outputs) Len() int {
	return len(o.keys)
}

// Map returns a copy of the namespace.
func (o *Outputs) Map() map[string]any {
	m := make(map[string]any, len(o.values))
	for k, v := range o.values {
		m[k] = v
	}
	return m
}
