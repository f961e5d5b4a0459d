package deployment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fabric_errs "github.com/klothoplatform/fabric/pkg/fabric/errors"
)

type (
	// FailureClass is the remediation category of a provisioning failure.
	FailureClass string

	// ProvisioningError is a classified failure reported by the provisioning engine.
	ProvisioningError struct {
		Class FailureClass
		Op    string
		Stack string
		Err   error
	}

	// PartialDestroyError means a destroy did not complete and resources may still exist.
	PartialDestroyError struct {
		Stack string
		Err   error
		// Fallback is the error of the direct deletion attempt, if one was made.
		Fallback error
	}

	// StackBusyError is returned when the context ends while waiting for another operation on the
	// same stack.
	StackBusyError struct {
		Stack string
		Err   error
	}

	signature struct {
		class    FailureClass
		patterns []string
	}
)

const (
	ClassQuota        FailureClass = "quota"
	ClassNameTaken    FailureClass = "name_taken"
	ClassRegionPolicy FailureClass = "region_policy"
	ClassUnclassified FailureClass = "unclassified"
)

// signatures are matched case-insensitively in order, most specific first: "limit" and "exceeded"
// are broad enough to appear in other failures.
var signatures = []signature{
	{ClassRegionPolicy, []string{"RequestDisallowedByPolicy", "LocationNotAvailable", "disallowed by policy"}},
	{ClassNameTaken, []string{"StorageAccountAlreadyTaken", "NameNotAvailable", "AlreadyExists", "already taken"}},
	{ClassQuota, []string{"MaxNumberOfRegionalEnvironmentsInSubExceeded", "QuotaExceeded", "exceeded", "limit"}},
}

var guidance = map[FailureClass]string{
	ClassQuota: "A subscription or regional capacity limit was exceeded. " +
		"Remove unused resources, request a quota increase, or deploy to another location.",
	ClassNameTaken: "A globally unique resource name is already taken. " +
		"Rename the node or set an explicit name in its props, then retry.",
	ClassRegionPolicy: "The target region is blocked by a subscription policy. " +
		"Set the graph's location to a region the subscription allows.",
	ClassUnclassified: "The provisioning engine reported an unrecognized failure. Check the provisioning log for details.",
}

// Classify returns the failure class of a provisioning error by its message.
func Classify(msg string) FailureClass {
	lower := strings.ToLower(msg)
	for _, sig := range signatures {
		for _, p := range sig.patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				return sig.class
			}
		}
	}
	return ClassUnclassified
}

// detail is the most complete description of err available for classification.
func detail(err error) string {
	var d interface{ Detail() string }
	if errors.As(err, &d) {
		return d.Detail()
	}
	return err.Error()
}

// classify wraps a provisioning engine failure. Already classified errors and cancellations are
// returned unchanged.
func classify(op, stack string, err error) error {
	if _, ok := fabric_errs.AsFabricError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ProvisioningError{Class: Classify(detail(err)), Op: op, Stack: stack, Err: err}
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s of stack %s failed: %v", e.Op, e.Stack, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

func (e *ProvisioningError) Guidance() string {
	return guidance[e.Class]
}

func (e *ProvisioningError) ErrorCode() fabric_errs.ErrorCode {
	switch e.Class {
	case ClassQuota:
		return fabric_errs.ProvisioningQuotaCode
	case ClassNameTaken:
		return fabric_errs.ProvisioningNameCode
	case ClassRegionPolicy:
		return fabric_errs.ProvisioningRegionCode
	default:
		return fabric_errs.ProvisioningFailedCode
	}
}

func (e *ProvisioningError) ToJSONMap() map[string]any {
	return map[string]any{
		"class":    e.Class,
		"stack":    e.Stack,
		"guidance": e.Guidance(),
	}
}

func (e *PartialDestroyError) Error() string {
	msg := fmt.Sprintf("destroy of stack %s did not complete, resources may still exist: %v", e.Stack, e.Err)
	if e.Fallback != nil {
		msg += fmt.Sprintf(" (direct deletion also failed: %v)", e.Fallback)
	}
	return msg
}

func (e *PartialDestroyError) Unwrap() []error {
	if e.Fallback == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Fallback}
}

func (e *PartialDestroyError) ErrorCode() fabric_errs.ErrorCode {
	return fabric_errs.PartialDestroyCode
}

func (e *PartialDestroyError) ToJSONMap() map[string]any {
	return map[string]any{
		"stack":             e.Stack,
		"fallbackAttempted": e.Fallback != nil,
		"guidance":          "Resources may still exist. Inspect the resource group in the portal or retry with credentials.",
	}
}

func (e *StackBusyError) Error() string {
	return fmt.Sprintf("stack %s is busy with another operation: %v", e.Stack, e.Err)
}

func (e *StackBusyError) Unwrap() error {
	return e.Err
}

func (e *StackBusyError) ErrorCode() fabric_errs.ErrorCode {
	return fabric_errs.StackBusyCode
}

func (e *StackBusyError) ToJSONMap() map[string]any {
	return map[string]any{"stack": e.Stack}
}
