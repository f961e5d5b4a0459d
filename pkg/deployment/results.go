package deployment

import (
	"github.com/klothoplatform/fabric/pkg/fabric"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/validation"
)

// Destroy methods.
const (
	MethodStack         = "stack"
	MethodResourceGroup = "resource-group"
	MethodNone          = "none"
)

type (
	PreviewResult struct {
		Preview       bool                    `json:"preview" yaml:"preview"`
		Stack         string                  `json:"stack" yaml:"stack"`
		ChangeSummary provision.ChangeSummary `json:"changeSummary" yaml:"changeSummary"`
		Validation    validation.Report       `json:"validation" yaml:"validation"`
		Diagnostics   []string                `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	}

	UpResult struct {
		Preview     bool              `json:"preview" yaml:"preview"`
		Stack       string            `json:"stack" yaml:"stack"`
		Outputs     map[string]any    `json:"outputs" yaml:"outputs"`
		Summary     Summary           `json:"summary" yaml:"summary"`
		Validation  validation.Report `json:"validation" yaml:"validation"`
		Diagnostics []string          `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	}

	Summary struct {
		Resources   provision.ChangeSummary `json:"resources" yaml:"resources"`
		DurationSec float64                 `json:"duration_sec" yaml:"duration_sec"`
	}

	DestroyResult struct {
		Destroyed bool                    `json:"destroyed" yaml:"destroyed"`
		Stack     string                  `json:"stack" yaml:"stack"`
		Method    string                  `json:"method" yaml:"method"`
		Message   string                  `json:"message" yaml:"message"`
		Summary   provision.ChangeSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	}

	// KindInfo describes one supported node kind.
	KindInfo struct {
		Kind    fabric.Kind `json:"kind" yaml:"kind"`
		Domain  string      `json:"domain" yaml:"domain"`
		Aliases []string    `json:"aliases" yaml:"aliases"`
	}
)

func diagnosticMessages(diags []fabric.Diagnostic) []string {
	if len(diags) == 0 {
		return nil
	}
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.String()
	}
	return msgs
}
