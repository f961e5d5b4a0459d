package stack

import (
	"fmt"
	"strings"

	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/pulumi/pulumi/sdk/v3/go/auto"
)

// OpError is a failed Pulumi operation. The message only keeps the first line of the engine's
// output, the rest was already streamed to the log. Err keeps the full output.
type OpError struct {
	Op    string
	Stack provision.Stack
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("failed to %s stack %s: %s", e.Op, e.Stack, firstLine(e.Err.Error()))
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Detail is the full engine output, used to classify provider errors.
func (e *OpError) Detail() string {
	return e.Err.Error()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// summarize maps Pulumi operation counts onto change kinds. Replacement steps count once, as
// replace; reads and refreshes are not changes.
func summarize[K ~string](changes map[K]int) provision.ChangeSummary {
	summary := provision.ChangeSummary{}
	for op, n := range changes {
		if n == 0 {
			continue
		}
		switch provision.Op(op) {
		case provision.OpCreate, provision.OpUpdate, provision.OpDelete, provision.OpReplace, provision.OpSame:
			summary[provision.Op(op)] += n
		}
	}
	return summary
}

func summaryOf(s auto.UpdateSummary) provision.ChangeSummary {
	if s.ResourceChanges == nil {
		return provision.ChangeSummary{}
	}
	return summarize(*s.ResourceChanges)
}

// outputValues converts stack outputs into the value model. Secret outputs stay wrapped.
func outputValues(outputs auto.OutputMap) map[string]provision.Value {
	values := make(map[string]provision.Value, len(outputs))
	for k, o := range outputs {
		v := provision.FromAny(o.Value)
		if o.Secret {
			v = provision.SecretValue{Inner: v}
		}
		values[k] = v
	}
	return values
}
