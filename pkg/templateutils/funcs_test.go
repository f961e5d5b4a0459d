package templateutils

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncs(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data any
		want string
	}{
		{name: "json", tmpl: `{{ json . }}`, data: map[string]any{"a": 1}, want: `{"a":1}`},
		{name: "jsonPretty", tmpl: `{{ jsonPretty . }}`, data: []int{1}, want: "[\n    1\n]"},
		{name: "plural one", tmpl: `{{ plural 1 "resource" }}`, want: "resource"},
		{name: "plural many", tmpl: `{{ plural 0 "resource" }}`, want: "resources"},
		{name: "sortedKeys", tmpl: `{{ sortedKeys . | join "," }}`, data: map[string]int{"b": 1, "a": 2}, want: "a,b"},
		{name: "sortedKeys non-map", tmpl: `{{ len (sortedKeys .) }}`, data: []string{"a"}, want: "0"},
		{name: "scalar string", tmpl: `{{ scalar . }}`, data: "rg-p-d", want: "rg-p-d"},
		{name: "scalar nested", tmpl: `{{ scalar . }}`, data: map[string]any{"k": []any{"v"}}, want: `{"k":["v"]}`},
		{name: "scalar nil", tmpl: `{{ scalar . }}`, want: "<nil>"},
		{name: "sprig", tmpl: `{{ "fabric" | upper }}`, want: "FABRIC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"t.tmpl": {Data: []byte(tt.tmpl)}}
			tmpl := MustTemplates(fsys, nil, "*.tmpl")

			var buf bytes.Buffer
			require.NoError(t, tmpl.ExecuteTemplate(&buf, "t.tmpl", tt.data))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestMustTemplates_Override(t *testing.T) {
	fsys := fstest.MapFS{"t.tmpl": {Data: []byte(`{{ plural 2 "x" }}`)}}
	tmpl := MustTemplates(fsys, map[string]any{"plural": func(int, string) string { return "custom" }}, "*.tmpl")

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "t.tmpl", nil))
	assert.Equal(t, "custom", buf.String())
}

func TestMustTemplates_Invalid(t *testing.T) {
	fsys := fstest.MapFS{"t.tmpl": {Data: []byte(`{{ if }}`)}}
	assert.Panics(t, func() { MustTemplates(fsys, nil, "*.tmpl") })
}
