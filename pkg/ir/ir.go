package ir

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type (
	// Graph is the vendor-neutral description of a deployment submitted by a caller.
	// It is consumed read-only.
	Graph struct {
		Project  string `json:"project" yaml:"project" toml:"project"`
		Env      string `json:"env" yaml:"env" toml:"env"`
		Location string `json:"location,omitempty" yaml:"location,omitempty" toml:"location,omitempty"`
		Region   string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
		Nodes    []Node `json:"nodes" yaml:"nodes" toml:"nodes"`
		Edges    []Edge `json:"edges,omitempty" yaml:"edges,omitempty" toml:"edges,omitempty"`
	}

	Node struct {
		ID    string         `json:"id" yaml:"id" toml:"id"`
		Kind  string         `json:"kind" yaml:"kind" toml:"kind"`
		Name  string         `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
		Props map[string]any `json:"props,omitempty" yaml:"props,omitempty" toml:"props,omitempty"`
	}

	Edge struct {
		From   string `json:"from" yaml:"from" toml:"from"`
		To     string `json:"to" yaml:"to" toml:"to"`
		Intent string `json:"intent,omitempty" yaml:"intent,omitempty" toml:"intent,omitempty"`
	}

	// edgeAliases accepts the "from_"/"to_" spellings some clients send.
	edgeAliases struct {
		From    string `json:"from" yaml:"from"`
		FromAlt string `json:"from_" yaml:"from_"`
		To      string `json:"to" yaml:"to"`
		ToAlt   string `json:"to_" yaml:"to_"`
		Intent  string `json:"intent" yaml:"intent"`
	}
)

// IntentNotify is the only edge intent with defined connector semantics.
const IntentNotify = "notify"

// DisplayName is the name resources are derived from: the node's name, or its id when unnamed.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

func (n Node) String() string {
	return fmt.Sprintf("%s (%s)", n.ID, n.Kind)
}

// EffectiveIntent returns the edge's intent, defaulting to notify.
func (e Edge) EffectiveIntent() string {
	if e.Intent == "" {
		return IntentNotify
	}
	return e.Intent
}

// Normalized returns the edge with its intent made explicit, so that an edge written with and
// without the default intent compares equal.
func (e Edge) Normalized() Edge {
	return Edge{From: e.From, To: e.To, Intent: e.EffectiveIntent()}
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s [%s]", e.From, e.To, e.EffectiveIntent())
}

func (a edgeAliases) edge() Edge {
	e := Edge{From: a.From, To: a.To, Intent: a.Intent}
	if e.From == "" {
		e.From = a.FromAlt
	}
	if e.To == "" {
		e.To = a.ToAlt
	}
	return e
}

func (e *Edge) UnmarshalJSON(b []byte) error {
	var a edgeAliases
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*e = a.edge()
	return nil
}

func (e *Edge) UnmarshalYAML(n *yaml.Node) error {
	var a edgeAliases
	if err := n.Decode(&a); err != nil {
		return err
	}
	*e = a.edge()
	return nil
}

// ResolveLocation returns the graph's location, falling back to its region and then to def.
func (g *Graph) ResolveLocation(def string) string {
	switch {
	case g.Location != "":
		return g.Location
	case g.Region != "":
		return g.Region
	default:
		return def
	}
}

// StackName is the identity of the deployment unit the graph targets.
func (g *Graph) StackName() string {
	return fmt.Sprintf("%s-%s", g.Project, g.Env)
}

// NodeIDs returns the ids of all nodes in input order, duplicates included.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node returns the first node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
