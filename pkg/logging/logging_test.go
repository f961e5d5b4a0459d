package logging

import (
	"context"
	"testing"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevels(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  map[string]zapcore.Level
	}{
		{name: "empty", value: "", want: map[string]zapcore.Level{}},
		{
			name:  "pairs",
			value: "fabric=debug, pulumi.events=warn",
			want:  map[string]zapcore.Level{"fabric": zapcore.DebugLevel, "pulumi.events": zapcore.WarnLevel},
		},
		{
			name:  "malformed pairs are skipped",
			value: "fabric,api=loud,=error",
			want:  map[string]zapcore.Level{"": zapcore.ErrorLevel},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevels(tt.value))
		})
	}
}

func TestEntryLeveller(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(NewEntryLeveller(core, map[string]zapcore.Level{
		"pulumi":      zapcore.WarnLevel,
		"pulumi.diag": zapcore.DebugLevel,
	}))

	log.Named("pulumi").Info("dropped")
	log.Named("pulumi").Named("events").Info("dropped by parent")
	log.Named("pulumi").Named("events").Warn("kept")
	log.Named("pulumi").Named("diag").Debug("own level")
	log.Named("api").Debug("unconfigured")

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"kept", "own level", "unconfigured"}, msgs)
}

func TestCategoryWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "logs/pulumi.log", []byte("stale run\n"), 0644))

	cw := NewCategoryWriter(zapcore.NewJSONEncoder(zapcore.EncoderConfig{MessageKey: "msg", NameKey: "logger"}), fs, "logs")
	log := zap.New(cw)

	log.Named("pulumi").Named("events").Info("event")
	log.Named("deploy").Info("converged")
	log.Info("anonymous")
	require.NoError(t, cw.Sync())
	require.NoError(t, cw.Close())

	pulumi, err := afero.ReadFile(fs, "logs/pulumi.log")
	require.NoError(t, err)
	assert.Equal(t, `{"logger":"events","msg":"event"}`+"\n", string(pulumi))

	deploy, err := afero.ReadFile(fs, "logs/deploy.log")
	require.NoError(t, err)
	assert.Contains(t, string(deploy), "converged")

	entries, err := afero.ReadDir(fs, "logs")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLoggerWriter(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := NewLoggerWriter(zap.New(core), zapcore.InfoLevel)

	_, err := w.Write([]byte("Updating (dev)\n\n  + create"))
	require.NoError(t, err)
	_, err = w.Write([]byte(" storage\r\npartial"))
	require.NoError(t, err)
	require.Equal(t, 2, logs.Len())
	require.NoError(t, w.Close())

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{"Updating (dev)", "  + create storage", "partial"}, msgs)
}

func TestLoggerWriterLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := NewLoggerWriter(zap.New(core), zapcore.DebugLevel)
	_, err := w.Write([]byte("noise\n"))
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	GetLogger(ctx).Info("hello", NodeField(ir.Node{ID: "s1", Kind: "object-storage"}), EdgeField(ir.Edge{From: "s1", To: "q1"}))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, map[string]any{"id": "s1", "kind": "object-storage"}, fields["node"])
	assert.Equal(t, map[string]any{"from": "s1", "to": "q1", "intent": "notify"}, fields["edge"])

	assert.Same(t, zap.L(), GetLogger(context.Background()))
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	ctx, log := With(ctx, zap.String("stack", "p-d"))
	log.Info("one")
	GetLogger(ctx).Info("two")

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "p-d", entry.ContextMap()["stack"])
	}
}

func TestGraphField(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("compile", GraphField(&ir.Graph{
		Project: "p",
		Env:     "dev",
		Nodes:   []ir.Node{{ID: "a", Props: map[string]any{"password": "hunter2"}}},
	}))
	assert.Equal(t, map[string]any{"project": "p", "env": "dev", "nodes": 1, "edges": 0}, logs.All()[0].ContextMap()["graph"])
}
