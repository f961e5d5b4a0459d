package ir

import (
	"bytes"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleYAML = dedent.Dedent(`
	project: shop
	env: dev
	region: eastus
	nodes:
	  - id: uploads
	    kind: object-storage
	    props:
	      containerName: images
	  - id: jobs
	    kind: message-queue
	    name: job-queue
	edges:
	  - from: uploads
	    to: jobs
	  - from_: jobs
	    to_: uploads
	    intent: audit
	`)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  Format
		want    *Graph
		wantErr bool
	}{
		{
			name:    "yaml with aliases",
			content: sampleYAML,
			format:  FormatYAML,
			want: &Graph{
				Project: "shop",
				Env:     "dev",
				Region:  "eastus",
				Nodes: []Node{
					{ID: "uploads", Kind: "object-storage", Props: map[string]any{"containerName": "images"}},
					{ID: "jobs", Kind: "message-queue", Name: "job-queue"},
				},
				Edges: []Edge{
					{From: "uploads", To: "jobs"},
					{From: "jobs", To: "uploads", Intent: "audit"},
				},
			},
		},
		{
			name:    "json",
			content: `{"project":"p","env":"d","nodes":[{"id":"s1","kind":"object-storage"}],"edges":[{"from_":"s1","to":"s1","intent":"notify"}]}`,
			format:  FormatJSON,
			want: &Graph{
				Project: "p",
				Env:     "d",
				Nodes:   []Node{{ID: "s1", Kind: "object-storage"}},
				Edges:   []Edge{{From: "s1", To: "s1", Intent: "notify"}},
			},
		},
		{
			name: "toml",
			content: dedent.Dedent(`
				project = "p"
				env = "d"
				location = "centralus"

				[[nodes]]
				id = "kv"
				kind = "secret-store"

				[[edges]]
				from = "kv"
				to = "kv"
				`),
			format: FormatTOML,
			want: &Graph{
				Project:  "p",
				Env:      "d",
				Location: "centralus",
				Nodes:    []Node{{ID: "kv", Kind: "secret-store"}},
				Edges:    []Edge{{From: "kv", To: "kv"}},
			},
		},
		{
			name:    "malformed",
			content: "nodes: [",
			format:  FormatYAML,
			wantErr: true,
		},
		{
			name:    "unknown format",
			content: "{}",
			format:  Format("xml"),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.content), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/graphs/shop.yaml", []byte(sampleYAML), 0644))

	g, err := ReadFile(fs, "/graphs/shop.yaml")
	require.NoError(t, err)
	assert.Equal(t, "shop-dev", g.StackName())
	assert.Equal(t, []string{"uploads", "jobs"}, g.NodeIDs())

	_, err = ReadFile(fs, "/graphs/missing.yaml")
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(FormatJSON, FormatOf("ir.json"))
	assert.Equal(FormatTOML, FormatOf("a/b/ir.toml"))
	assert.Equal(FormatYAML, FormatOf("ir.yml"))
	assert.Equal(FormatYAML, FormatOf("ir"))
}

func TestGraph_ResolveLocation(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("northeurope", (&Graph{Location: "northeurope", Region: "eastus"}).ResolveLocation("westeurope"))
	assert.Equal("eastus", (&Graph{Region: "eastus"}).ResolveLocation("westeurope"))
	assert.Equal("westeurope", (&Graph{}).ResolveLocation("westeurope"))
}

func TestNodeAndEdgeHelpers(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("n1", Node{ID: "n1"}.DisplayName())
	assert.Equal("pretty", Node{ID: "n1", Name: "pretty"}.DisplayName())
	assert.Equal(IntentNotify, Edge{}.EffectiveIntent())
	assert.Equal("a -> b [notify]", Edge{From: "a", To: "b"}.String())
	assert.Equal(Edge{From: "a", To: "b", Intent: "notify"}.Normalized(), Edge{From: "a", To: "b"}.Normalized())
	assert.NotEqual(Edge{From: "a", To: "b", Intent: "audit"}.Normalized(), Edge{From: "a", To: "b"}.Normalized())

	g := &Graph{Nodes: []Node{{ID: "a", Kind: "telemetry"}}}
	n, ok := g.Node("a")
	assert.True(ok)
	assert.Equal("telemetry", n.Kind)
	_, ok = g.Node("zz")
	assert.False(ok)
}

func TestGraph_Topology(t *testing.T) {
	tests := []struct {
		name    string
		graph   Graph
		edges   int
		wantErr string
	}{
		{
			name: "valid",
			graph: Graph{
				Nodes: []Node{{ID: "a"}, {ID: "b"}},
				Edges: []Edge{{From: "a", To: "b"}, {From: "a", To: "b", Intent: "audit"}, {From: "b", To: "a"}},
			},
			edges: 2,
		},
		{
			name:    "duplicate node",
			graph:   Graph{Nodes: []Node{{ID: "a"}, {ID: "a"}}},
			wantErr: `duplicate node id "a"`,
		},
		{
			name: "dangling edge",
			graph: Graph{
				Nodes: []Node{{ID: "a"}},
				Edges: []Edge{{From: "a", To: "ghost"}},
			},
			wantErr: "unknown node",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo, err := tt.graph.Topology()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			size, err := topo.Size()
			require.NoError(t, err)
			assert.Equal(t, tt.edges, size)
		})
	}
}

func TestGraph_RenderDOT(t *testing.T) {
	g, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.RenderDOT(&buf))
	out := buf.String()
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, `"uploads"`)
	assert.Contains(t, out, `"jobs"`)
	assert.Contains(t, out, "shop-dev")
}
