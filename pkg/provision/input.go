package provision

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type (
	// Input is a property value whose concrete value may only be known once the provisioning
	// engine has created other resources. Property maps may mix Inputs with plain values, nested
	// inside map[string]any and []any.
	Input interface {
		input()
	}

	// AttrRef refers to an attribute of a declared resource. Path is dot separated, with numeric
	// segments indexing into lists (e.g. "properties.vaultUri", "keys.0.value").
	AttrRef struct {
		Resource *Resource
		Path     string
	}

	// InvokeRef refers to a field of the result of a read-only provider query.
	InvokeRef struct {
		Invoke *Invoke
		Path   string
	}

	// Apply composes other inputs. Fn receives the resolved argument values in order.
	Apply struct {
		Args []any
		Fn   func(args []any) (any, error)
	}

	// SecretInput marks its value as sensitive. Engines must never log it in clear text.
	SecretInput struct {
		Value any
	}
)

func (AttrRef) input()     {}
func (InvokeRef) input()   {}
func (Apply) input()       {}
func (SecretInput) input() {}

func (r AttrRef) String() string {
	return fmt.Sprintf("%s#%s", r.Resource.URN(), r.Path)
}

func (r InvokeRef) String() string {
	return fmt.Sprintf("%s#%s", r.Invoke.Token, r.Path)
}

func (s SecretInput) String() string {
	return redacted
}

func (s SecretInput) GoString() string {
	return redacted
}

// Secret marks v as sensitive.
func Secret(v any) SecretInput {
	if s, ok := v.(SecretInput); ok {
		return s
	}
	return SecretInput{Value: v}
}

// Map applies fn to a single resolved input.
func Map(v any, fn func(any) (any, error)) Apply {
	return Apply{
		Args: []any{v},
		Fn: func(args []any) (any, error) {
			return fn(args[0])
		},
	}
}

// Sprintf formats resolved args with fmt.Sprintf once they are all known.
func Sprintf(format string, args ...any) Apply {
	return Apply{
		Args: args,
		Fn: func(resolved []any) (any, error) {
			return fmt.Sprintf(format, resolved...), nil
		},
	}
}

// Walk rebuilds v, replacing every Input found inside maps and slices with the result of resolve.
// Plain values are returned as is.
func Walk(v any, resolve func(Input) (any, error)) (any, error) {
	switch v := v.(type) {
	case Input:
		return resolve(v)

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, err := Walk(item, resolve)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = r
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := Walk(item, resolve)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = r
		}
		return out, nil

	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil

	default:
		return v, nil
	}
}

// References returns the resources an input tree depends on, in first-seen order.
func References(v any) []*Resource {
	var refs []*Resource
	seen := make(map[*Resource]struct{})
	var visit func(any)
	visit = func(v any) {
		switch v := v.(type) {
		case AttrRef:
			if _, ok := seen[v.Resource]; !ok {
				seen[v.Resource] = struct{}{}
				refs = append(refs, v.Resource)
			}
		case InvokeRef:
			for _, arg := range v.Invoke.Args {
				visit(arg)
			}
		case Apply:
			for _, arg := range v.Args {
				visit(arg)
			}
		case SecretInput:
			visit(v.Value)
		case map[string]any:
			for _, item := range v {
				visit(item)
			}
		case []any:
			for _, item := range v {
				visit(item)
			}
		}
	}
	visit(v)
	return refs
}

// ContainsSecret reports whether any part of the input tree is marked secret.
func ContainsSecret(v any) bool {
	switch v := v.(type) {
	case SecretInput:
		return true
	case Apply:
		for _, arg := range v.Args {
			if ContainsSecret(arg) {
				return true
			}
		}
	case map[string]any:
		for _, item := range v {
			if ContainsSecret(item) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if ContainsSecret(item) {
				return true
			}
		}
	}
	return false
}

// Lookup navigates a plain value along a dot separated path.
func Lookup(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}
	current := v
	for _, part := range strings.Split(path, ".") {
		switch c := current.(type) {
		case map[string]any:
			next, ok := c[part]
			if !ok {
				return nil, false
			}
			current = next

		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			current = c[idx]

		default:
			rv := reflect.ValueOf(current)
			if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
				mv := rv.MapIndex(reflect.ValueOf(part).Convert(rv.Type().Key()))
				if !mv.IsValid() {
					return nil, false
				}
				current = mv.Interface()
				continue
			}
			return nil, false
		}
	}
	return current, true
}
