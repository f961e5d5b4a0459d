package local

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// idNamespace seeds every simulated identifier so that ids only depend on the stack and resource.
var idNamespace = uuid.MustParse("6f1c9a4e-3d2b-5e7f-8a90-1b2c3d4e5f60")

// nameProps overrides the property holding a resource's physical name when it does not follow the
// <lowerCamelType>Name convention.
var nameProps = map[string]string{
	"StorageAccount":             "accountName",
	"BlobContainer":              "containerName",
	"DatabaseAccount":            "accountName",
	"SqlResourceSqlDatabase":     "databaseName",
	"SqlResourceSqlContainer":    "containerName",
	"NamespaceAuthorizationRule": "authorizationRuleName",
	"ManagedEnvironment":         "environmentName",
	"ApiManagementService":       "serviceName",
	"Component":                  "resourceName",
	"Server":                     "serverName",
	"Database":                   "databaseName",
	"PublicIPAddress":            "publicIpAddressName",
}

// replaceOnChange are the inputs that cannot be updated in place.
var replaceOnChange = []string{"location", "kind"}

type simulator struct {
	stack provision.Stack

	mu    sync.RWMutex
	attrs map[string]map[string]any
}

func newSimulator(stack provision.Stack) *simulator {
	return &simulator{stack: stack, attrs: make(map[string]map[string]any)}
}

// typeName is the last segment of a type token, e.g. "StorageAccount".
func typeName(token string) string {
	return token[strings.LastIndex(token, ":")+1:]
}

func nameProp(token string) string {
	name := typeName(token)
	if p, ok := nameProps[name]; ok {
		return p
	}
	return strcase.ToLowerCamel(name) + "Name"
}

func (s *simulator) seed(parts ...string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(s.stack.Name()+"|"+strings.Join(parts, "|")))
}

// physicalName is the explicit name input when there is one, otherwise an auto-name derived from
// the logical name.
func (s *simulator) physicalName(r *provision.Resource, inputs map[string]any) string {
	if name, ok := inputs[nameProp(r.Type)].(string); ok && name != "" {
		return name
	}
	return fmt.Sprintf("%s%s", r.Name, s.seed(r.URN()).String()[:7])
}

func (s *simulator) resourceID(r *provision.Resource, name string) string {
	return fmt.Sprintf("/subscriptions/local/resourceGroups/%s/providers/%s/%s", s.stack.Name(), r.Type, name)
}

// create computes the attributes of r from its revealed inputs and makes them available to
// dependents.
func (s *simulator) create(r *provision.Resource, inputs map[string]any) (id string) {
	attrs := make(map[string]any, len(inputs)+3)
	for k, v := range inputs {
		attrs[k] = v
	}
	name := s.physicalName(r, inputs)
	id = s.resourceID(r, name)
	attrs["name"] = name
	attrs["id"] = id
	if typeName(r.Type) == "RandomPassword" {
		attrs["result"] = "Lc1!" + strings.ReplaceAll(s.seed(r.URN(), "result").String(), "-", "")[:20]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[r.URN()] = attrs
	return id
}

func (s *simulator) attr(ref provision.AttrRef) (any, error) {
	s.mu.RLock()
	attrs, ok := s.attrs[ref.Resource.URN()]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s is referenced before it was created", ref.Resource)
	}
	if v, ok := provision.Lookup(attrs, ref.Path); ok {
		return v, nil
	}
	return fmt.Sprintf("local://%s/%s/%s", ref.Resource.Type, ref.Resource.Name, ref.Path), nil
}

func (s *simulator) invoke(ref provision.InvokeRef) (any, error) {
	args, err := s.resolve(ref.Invoke.Args, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref.Invoke.Token, err)
	}
	canonical, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return strings.ReplaceAll(s.seed(ref.Invoke.Token, string(canonical), ref.Path).String(), "-", ""), nil
}

// resolve replaces every input in v. Without reveal, secret parts are replaced by fingerprints.
func (s *simulator) resolve(v any, reveal bool) (any, error) {
	return provision.Walk(v, func(in provision.Input) (any, error) {
		switch in := in.(type) {
		case provision.AttrRef:
			return s.attr(in)

		case provision.InvokeRef:
			return s.invoke(in)

		case provision.SecretInput:
			val, err := s.resolve(in.Value, true)
			if err != nil || reveal {
				return val, err
			}
			return s.fingerprint(val), nil

		case provision.Apply:
			args := make([]any, len(in.Args))
			for i, arg := range in.Args {
				a, err := s.resolve(arg, true)
				if err != nil {
					return nil, err
				}
				args[i] = a
			}
			out, err := in.Fn(args)
			if err != nil || reveal || !provision.ContainsSecret(in) {
				return out, err
			}
			return s.fingerprint(out), nil

		default:
			return nil, fmt.Errorf("unsupported input %T", in)
		}
	})
}

func (s *simulator) fingerprint(v any) string {
	return "sha1:" + s.seed("secret", fmt.Sprint(v)).String()
}

func (s *simulator) resolveProps(r *provision.Resource, reveal bool) (map[string]any, error) {
	out, err := s.resolve(r.Props, reveal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r, err)
	}
	return out.(map[string]any), nil
}

// output converts an export into the value reported to callers. Composed values stay deferred
// until they are read.
func (s *simulator) output(v any) (provision.Value, error) {
	switch v := v.(type) {
	case provision.Apply:
		return provision.Deferred{Resolve: func() (provision.Value, error) {
			out, err := s.resolve(v, true)
			if err != nil {
				return nil, err
			}
			if provision.ContainsSecret(v) {
				return provision.SecretValue{Inner: provision.FromAny(out)}, nil
			}
			return provision.FromAny(out), nil
		}}, nil

	case provision.SecretInput:
		inner, err := s.output(v.Value)
		if err != nil {
			return nil, err
		}
		return provision.SecretValue{Inner: inner}, nil

	default:
		out, err := s.resolve(v, true)
		if err != nil {
			return nil, err
		}
		return provision.FromAny(out), nil
	}
}
