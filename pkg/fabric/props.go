package fabric

import (
	"fmt"
	"sort"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/sanitization"
	"github.com/mitchellh/mapstructure"
)

// decodeProps decodes a node's props over target, which holds the defaults. Unknown props are
// ignored and scalar types are converted where unambiguous (e.g. "true" to a bool).
func decodeProps(node ir.Node, target any) error {
	if len(node.Props) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(node.Props); err != nil {
		return fmt.Errorf("invalid props for node %s: %w", node.ID, err)
	}
	return nil
}

// adminPassword is the supplied password, or a generated one declared on the plan.
func adminPassword(plan *provision.Plan, supplied string, name string) (provision.SecretInput, error) {
	if supplied != "" {
		return provision.Secret(supplied), nil
	}
	pw, err := plan.Declare(TypeRandomPassword, name, map[string]any{
		"length":          24,
		"special":         true,
		"overrideSpecial": "!#%*()-_=+[]{}:?",
		"minLower":        1,
		"minUpper":        1,
		"minNumeric":      1,
		"minSpecial":      1,
	})
	if err != nil {
		return provision.SecretInput{}, err
	}
	return provision.Secret(pw.Attr("result")), nil
}

// storageConnectionString builds the connection string of an account from its listKeys result.
func storageConnectionString(account *provision.Resource, keys *provision.Invoke) provision.SecretInput {
	return provision.Secret(provision.Sprintf(
		"DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
		account.Attr("name"),
		keys.Attr("keys.0.value"),
	))
}

func sortedEnv(env map[string]string) []any {
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)
	vars := make([]any, len(names))
	for i, k := range names {
		vars[i] = map[string]any{"name": k, "value": env[k]}
	}
	return vars
}

// LogicalName derives the name every resource of a node is named after.
func LogicalName(node ir.Node, kind Kind) (string, error) {
	name := sanitization.Limit(node.DisplayName(), kind.LogicalNameLength())
	if name == "" {
		name = sanitization.Limit(node.ID, kind.LogicalNameLength())
	}
	if name == "" {
		return "", fmt.Errorf("node %q has no usable name", node.ID)
	}
	return name, nil
}
