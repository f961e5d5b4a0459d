package local

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// waves groups the plan's resources so that every resource comes in a later wave than all of its
// dependencies. Each wave is sorted by URN.
func waves(plan *provision.Plan) ([][]*provision.Resource, error) {
	g := graph.New(func(r *provision.Resource) string { return r.URN() }, graph.Directed(), graph.PreventCycles())
	for _, r := range plan.Resources() {
		if err := g.AddVertex(r); err != nil {
			return nil, fmt.Errorf("could not add %s: %w", r, err)
		}
	}
	for _, r := range plan.Resources() {
		for _, dep := range r.Dependencies() {
			err := g.AddEdge(dep.URN(), r.URN())
			switch {
			case err == nil, err == graph.ErrEdgeAlreadyExists:
			case err == graph.ErrVertexNotFound:
				return nil, fmt.Errorf("%s depends on %s which is not part of the plan", r, dep)
			default:
				return nil, fmt.Errorf("could not add dependency %s -> %s: %w", dep, r, err)
			}
		}
	}

	preds, err := g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	var result [][]*provision.Resource
	for len(preds) > 0 {
		var ready []string
		for urn, p := range preds {
			if len(p) == 0 {
				ready = append(ready, urn)
			}
		}
		if len(ready) == 0 {
			return nil, fmt.Errorf("dependency cycle among %d resources", len(preds))
		}
		sort.Strings(ready)
		wave := make([]*provision.Resource, len(ready))
		for i, urn := range ready {
			wave[i], _ = g.Vertex(urn)
			delete(preds, urn)
		}
		for _, p := range preds {
			for _, urn := range ready {
				delete(p, urn)
			}
		}
		result = append(result, wave)
	}
	return result, nil
}
