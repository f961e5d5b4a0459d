package logging

import (
	"github.com/klothoplatform/fabric/pkg/ir"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	nodeField  struct{ ir.Node }
	edgeField  struct{ ir.Edge }
	graphField struct{ *ir.Graph }
)

func NodeField(n ir.Node) zap.Field {
	return zap.Object("node", nodeField{n})
}

func EdgeField(e ir.Edge) zap.Field {
	return zap.Object("edge", edgeField{e})
}

// GraphField summarises a graph. Node properties are never logged since they may hold secrets.
func GraphField(g *ir.Graph) zap.Field {
	return zap.Object("graph", graphField{g})
}

func (f nodeField) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", f.ID)
	enc.AddString("kind", f.Kind)
	if f.Name != "" {
		enc.AddString("name", f.Name)
	}
	return nil
}

func (f edgeField) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("from", f.From)
	enc.AddString("to", f.To)
	enc.AddString("intent", f.EffectiveIntent())
	return nil
}

func (f graphField) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if f.Graph == nil {
		return nil
	}
	enc.AddString("project", f.Project)
	enc.AddString("env", f.Env)
	enc.AddInt("nodes", len(f.Nodes))
	enc.AddInt("edges", len(f.Edges))
	return nil
}
