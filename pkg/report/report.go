// Package report renders lifecycle results for terminals.
package report

import (
	"embed"
	"io"
	"regexp"
	"text/template"

	"github.com/fatih/color"
	"github.com/klothoplatform/fabric/pkg/deployment"
	"github.com/klothoplatform/fabric/pkg/templateutils"
	"github.com/klothoplatform/fabric/pkg/validation"
)

//go:embed templates/*.tmpl
var templates embed.FS

type Options struct {
	Color bool
	// ShowSecrets prints outputs whose names look sensitive instead of masking them.
	ShowSecrets bool
}

// secretOutput matches output keys that carry credentials.
var secretOutput = regexp.MustCompile(`(?i)(conn|connectionstring|password|secret|key)$`)

func (o Options) funcs() template.FuncMap {
	colorFn := func(attrs ...color.Attribute) func(...any) string {
		c := color.New(attrs...)
		if o.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return template.FuncMap{
		"bold":   colorFn(color.Bold),
		"green":  colorFn(color.FgHiGreen),
		"red":    colorFn(color.FgHiRed, color.Bold),
		"yellow": colorFn(color.FgHiYellow),
		"cyan":   colorFn(color.FgHiCyan),
		"output": func(key string, v any) string {
			if !o.ShowSecrets && secretOutput.MatchString(key) {
				return "[secret]"
			}
			return templateutils.Scalar(v)
		},
	}
}

func (o Options) render(w io.Writer, name string, data any) error {
	t := templateutils.MustTemplates(templates, o.funcs(), "templates/*.tmpl")
	return t.ExecuteTemplate(w, name, data)
}

func Validation(w io.Writer, r validation.Report, opts Options) error {
	return opts.render(w, "report", r)
}

func Preview(w io.Writer, res *deployment.PreviewResult, opts Options) error {
	return opts.render(w, "preview", res)
}

func Up(w io.Writer, res *deployment.UpResult, opts Options) error {
	return opts.render(w, "up", res)
}

func Destroy(w io.Writer, res *deployment.DestroyResult, opts Options) error {
	return opts.render(w, "destroy", res)
}

func Kinds(w io.Writer, kinds []deployment.KindInfo, opts Options) error {
	return opts.render(w, "kinds", kinds)
}
