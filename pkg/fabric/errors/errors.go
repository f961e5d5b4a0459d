package fabric_errs

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// FabricError is implemented by every classified failure surfaced to callers.
	FabricError interface {
		error
		// ToJSONMap returns a map that can be marshaled to JSON. Uses this instead of MarshalJSON so that
		// common fields such as 'error' are added once by the transport.
		ToJSONMap() map[string]any
		ErrorCode() ErrorCode
	}

	ErrorCode string

	InternalError struct {
		Err error
	}

	ErrorTree struct {
		Chain    []string    `json:"chain,omitempty"`
		Children []ErrorTree `json:"children,omitempty"`
	}
)

const (
	InternalErrCode        ErrorCode = "internal"
	ValidationCode         ErrorCode = "validation"
	UnsupportedKindCode    ErrorCode = "unsupported_kind"
	ProvisioningQuotaCode  ErrorCode = "provisioning_quota"
	ProvisioningNameCode   ErrorCode = "provisioning_name_taken"
	ProvisioningRegionCode ErrorCode = "provisioning_region_policy"
	ProvisioningFailedCode ErrorCode = "provisioning_failed"
	PartialDestroyCode     ErrorCode = "partial_destroy"
	StackBusyCode          ErrorCode = "stack_busy"
)

func (e InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e InternalError) ErrorCode() ErrorCode {
	return InternalErrCode
}

func (e InternalError) ToJSONMap() map[string]any {
	return map[string]any{}
}

func (e InternalError) Unwrap() error {
	return e.Err
}

// ToJSON builds the response body for err: the classification code, the message and any
// type-specific fields. Unclassified errors are reported as internal.
func ToJSON(err error) map[string]any {
	fe, ok := AsFabricError(err)
	if !ok {
		fe = InternalError{Err: err}
	}
	m := fe.ToJSONMap()
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	out["error"] = fe.ErrorCode()
	out["message"] = err.Error()
	return out
}

// AsFabricError finds the first FabricError in err's tree.
func AsFabricError(err error) (FabricError, bool) {
	var fe FabricError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

type (
	chainErr interface {
		error
		Unwrap() error
	}
	joinErr interface {
		error
		Unwrap() []error
	}
)

func unwrapChain(err error) (chain []string, last joinErr) {
	for current := err; current != nil; {
		var next error
		cc, ok := current.(chainErr)
		if ok {
			next = cc.Unwrap()
		} else {
			joined, ok := current.(joinErr)
			if ok {
				jerrs := joined.Unwrap()
				if len(jerrs) == 1 {
					next = jerrs[0]
				} else {
					last = joined
					return
				}
			} else {
				chain = append(chain, current.Error())
				return
			}
		}
		if next == nil {
			chain = append(chain, current.Error())
			return
		}
		msg := strings.TrimSuffix(strings.TrimSuffix(current.Error(), next.Error()), ": ")
		if msg != "" {
			chain = append(chain, msg)
		}
		current = next
	}
	return
}

// ErrorsToTree breaks an error into its wrap chain, branching at joined errors.
func ErrorsToTree(err error) (tree ErrorTree) {
	if err == nil {
		return
	}
	if t, ok := err.(ErrorTree); ok {
		return t
	}

	var joined joinErr
	tree.Chain, joined = unwrapChain(err)

	if joined != nil {
		errs := joined.Unwrap()
		tree.Children = make([]ErrorTree, len(errs))
		for i, e := range errs {
			tree.Children[i] = ErrorsToTree(e)
		}
	}
	return
}

func (t ErrorTree) Error() string {
	sb := &strings.Builder{}
	t.print(sb, 0)
	return sb.String()
}

func (t ErrorTree) print(out *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	for i, msg := range t.Chain {
		if i > 0 || indent > 0 {
			out.WriteString("\n")
		}
		out.WriteString(prefix)
		out.WriteString(msg)
	}
	for _, child := range t.Children {
		child.print(out, indent+1)
	}
}
