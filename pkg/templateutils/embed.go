package templateutils

import (
	"io/fs"
	"text/template"

	sprig "github.com/Masterminds/sprig/v3"
)

// MustTemplates parses every file of fsys matching patterns into one set, with Funcs, the
// hermetic sprig functions and extra available. Later function maps win.
func MustTemplates(fsys fs.FS, extra template.FuncMap, patterns ...string) *template.Template {
	t, err := template.New("").
		Funcs(sprig.HermeticTxtFuncMap()).
		Funcs(Funcs).
		Funcs(extra).
		ParseFS(fsys, patterns...)
	if err != nil {
		panic(err)
	}
	return t
}
