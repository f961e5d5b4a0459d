package ir

import (
	"errors"
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// Topology is the IR as a directed graph of nodes keyed by id.
type Topology = graph.Graph[string, Node]

func nodeHash(n Node) string {
	return n.ID
}

// Topology builds the node/edge graph. Unlike validation, which reports every defect, it stops
// at the first duplicate id or dangling edge endpoint.
func (g *Graph) Topology() (Topology, error) {
	t := graph.New(nodeHash, graph.Directed())
	for _, n := range g.Nodes {
		err := t.AddVertex(n, graph.VertexAttribute("label", fmt.Sprintf("%s\\n%s", n.ID, n.Kind)))
		if errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		} else if err != nil {
			return nil, err
		}
	}
	for _, e := range g.Edges {
		err := t.AddEdge(e.From, e.To, graph.EdgeAttribute("label", e.EffectiveIntent()))
		switch {
		case errors.Is(err, graph.ErrEdgeAlreadyExists):
			// parallel edges with different intents collapse to one connection

		case errors.Is(err, graph.ErrVertexNotFound):
			return nil, fmt.Errorf("edge %s references an unknown node: %w", e, err)

		case err != nil:
			return nil, err
		}
	}
	return t, nil
}

// RenderDOT writes the IR's topology in Graphviz DOT format.
func (g *Graph) RenderDOT(w io.Writer) error {
	t, err := g.Topology()
	if err != nil {
		return err
	}
	return draw.DOT(t, w, draw.GraphAttribute("label", g.StackName()))
}
