package fabric

import (
	"fmt"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/sanitization/azure"
	"go.uber.org/zap"
)

// DefaultLocation is used when neither the graph nor the compiler names a location.
const DefaultLocation = "westeurope"

// ResourceGroupOutput is the output key of the stack's resource group name.
const ResourceGroupOutput = "resourceGroupName"

type (
	Compiler struct {
		Registry *Registry
		Matrix   Matrix
		// Location is the fallback when the graph has neither a location nor a region.
		Location string
		TenantID string
	}

	// Compilation is the result of realizing one graph. Records are keyed by node id.
	Compilation struct {
		Location      string
		ResourceGroup *provision.Resource
		Records       map[string]*Record
		Outputs       *Outputs
		Bindings      []Binding
		Diagnostics   []Diagnostic
	}
)

func NewCompiler(registry *Registry, matrix Matrix) *Compiler {
	return &Compiler{
		Registry: registry,
		Matrix:   matrix,
		Location: DefaultLocation,
	}
}

// ApplyIR declares the graph's resources on plan: the resource group, then every node in input
// order, then every edge in input order. An unsupported kind stops compilation at that node;
// whatever was declared before it stays on the plan. A repeated edge is skipped with a
// diagnostic. Every output is also exported on the plan.
func (c *Compiler) ApplyIR(g *ir.Graph, plan *provision.Plan) (*Compilation, error) {
	log := zap.L().With(zap.String("stack", g.StackName()))

	comp := &Compilation{
		Location: g.ResolveLocation(c.Location),
		Records:  make(map[string]*Record, len(g.Nodes)),
		Outputs:  NewOutputs(),
	}

	rgName := azure.ResourceGroupName(g.Project, g.Env)
	rg, err := plan.Declare(TypeResourceGroup, rgName, map[string]any{
		"resourceGroupName": rgName,
		"location":          comp.Location,
	})
	if err != nil {
		return nil, err
	}
	comp.ResourceGroup = rg
	if err := comp.Outputs.Add(ResourceGroupOutput, rg.Attr("name")); err != nil {
		return nil, err
	}
	scope := Scope{ResourceGroup: rg, Location: comp.Location, TenantID: c.TenantID}

	for _, node := range g.Nodes {
		if _, dup := comp.Records[node.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", node.ID)
		}
		ctor, err := c.Registry.CreatorFor(node.Kind)
		if err != nil {
			return nil, err
		}
		rec, err := ctor.Construct(node, scope, plan)
		if err != nil {
			return nil, fmt.Errorf("could not construct %s: %w", node, err)
		}
		for _, attr := range rec.Outputs {
			if err := comp.Outputs.Add(rec.OutputKey(attr.Name), attr.Value); err != nil {
				return nil, fmt.Errorf("node %s: %w", node.ID, err)
			}
		}
		comp.Records[node.ID] = rec
		log.Debug("constructed node",
			zap.String("node", node.ID),
			zap.String("kind", string(rec.Kind)),
			zap.Int("resources", len(rec.Resources)),
		)
	}

	seen := make(map[ir.Edge]struct{}, len(g.Edges))
	for _, edge := range g.Edges {
		norm := edge.Normalized()
		if _, dup := seen[norm]; dup {
			diag := Diagnostic{Edge: edge, Reason: "duplicate of an earlier edge"}
			log.Warn("skipping edge", zap.String("edge", edge.String()), zap.String("reason", diag.Reason))
			comp.Diagnostics = append(comp.Diagnostics, diag)
			continue
		}
		seen[norm] = struct{}{}

		binding, diag, err := c.Matrix.Connect(edge, comp.Records[edge.From], comp.Records[edge.To], comp.Outputs, plan)
		if err != nil {
			return nil, err
		}
		if diag != nil {
			log.Warn("skipping edge", zap.String("edge", edge.String()), zap.String("reason", diag.Reason))
			comp.Diagnostics = append(comp.Diagnostics, *diag)
			continue
		}
		log.Debug("connected edge", zap.String("edge", edge.String()), zap.Stringer("strategy", binding.Strategy))
		comp.Bindings = append(comp.Bindings, *binding)
	}

	for _, key := range comp.Outputs.Keys() {
		v, _ := comp.Outputs.Get(key)
		if err := plan.Export(key, v); err != nil {
			return nil, err
		}
	}
	return comp, nil
}

// Record returns the record of a node, if it was realized.
func (c *Compilation) Record(id string) (*Record, bool) {
	r, ok := c.Records[id]
	return r, ok
}
