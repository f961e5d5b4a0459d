package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/klothoplatform/fabric/pkg/fabric"
	fabric_errs "github.com/klothoplatform/fabric/pkg/fabric/errors"
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/sanitization/azure"
	"go.uber.org/zap"
)

type (
	// Report is the outcome of validating a graph. It is never an error by itself: Valid is false
	// when Errors is non-empty.
	Report struct {
		Valid       bool     `json:"valid" yaml:"valid"`
		Errors      []string `json:"errors" yaml:"errors"`
		Warnings    []string `json:"warnings" yaml:"warnings"`
		Suggestions []string `json:"suggestions" yaml:"suggestions"`
	}

	Validator struct {
		policy      Policy
		registry    *fabric.Registry
		escalations []escalation
	}

	// ValidationError rejects a graph whose report has errors.
	ValidationError struct {
		Report Report
	}

	// warning keeps the kind a warning was raised for until escalation has been decided.
	warning struct {
		kind    string
		message string
	}

	check struct {
		g           *ir.Graph
		errors      []string
		warnings    []warning
		suggestions []string
	}
)

var (
	storageNamePattern  = regexp.MustCompile(`^[a-z0-9]+$`)
	keyVaultNamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]{3,24}$`)
)

// NewValidator fails only when an escalation expression does not compile.
func NewValidator(policy Policy, registry *fabric.Registry) (*Validator, error) {
	rules, err := compileEscalations(policy.Escalate)
	if err != nil {
		return nil, err
	}
	return &Validator{policy: policy, registry: registry, escalations: rules}, nil
}

func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate checks a graph for problems that would make a deployment fail or misbehave.
func (v *Validator) Validate(g *ir.Graph) Report {
	c := &check{g: g}
	location := g.ResolveLocation(v.policy.DefaultLocation)

	for _, node := range g.Nodes {
		ctor, err := v.registry.CreatorFor(node.Kind)
		if err != nil {
			c.errorf("Node %s: %v", node.ID, err)
			continue
		}
		switch ctor.Kind() {
		case fabric.ObjectStorage:
			v.checkStorage(c, node)
		case fabric.ContainerRuntime:
			c.warn(node, fmt.Sprintf(
				"Container runtime (node: %s) requires a managed environment. Subscriptions typically allow one managed environment per region; if one already exists in '%s', this deployment will fail.",
				node.ID, location,
			))
			c.suggestions = append(c.suggestions,
				"Remove the container runtime if the environment limit is reached",
				"Deploy to a different region",
				fmt.Sprintf("Delete the existing managed environment in '%s'", location),
			)
		case fabric.SecretStore:
			if !keyVaultNamePattern.MatchString(node.DisplayName()) {
				c.errorf("Secret store '%s' (node: %s) has an invalid name. Names must be 3-24 characters of letters, digits and hyphens.",
					node.DisplayName(), node.ID)
			}
		case fabric.FunctionCompute:
			if len(node.DisplayName()) > v.policy.MaxFunctionNameLength {
				c.warn(node, fmt.Sprintf("Function '%s' (node: %s) has a very long name. Function names should be under %d characters.",
					node.DisplayName(), node.ID, v.policy.MaxFunctionNameLength))
			}
		}
	}

	v.checkDuplicates(c)
	v.checkLogicalNames(c)
	v.checkAccountNames(c)
	v.checkEdges(c)

	for _, blocked := range v.policy.BlockedRegions {
		if strings.EqualFold(location, blocked) {
			c.warnings = append(c.warnings, warning{message: fmt.Sprintf(
				"Region '%s' may be blocked by the subscription policy.", location,
			)})
			c.suggestions = append(c.suggestions, fmt.Sprintf("Consider using one of: %s",
				strings.Join(v.policy.SuggestedRegions, ", ")))
			break
		}
	}

	return v.report(c)
}

// checkStorage rejects an explicit account name that cannot be used as written. Any other name
// is tightened into a legal account name at compile time, which is only worth a warning.
func (v *Validator) checkStorage(c *check, node ir.Node) {
	explicit, _ := node.Props["accountName"].(string)
	name := explicit
	if name == "" {
		name = node.DisplayName()
	}
	account := azure.StorageAccountName(name)
	g := c.g

	if explicit != "" {
		before := len(c.errors)
		if !storageNamePattern.MatchString(explicit) {
			c.errorf("Storage account '%s' (node: %s) contains invalid characters. Names must be lowercase letters and digits only.", explicit, node.ID)
		}
		if len(explicit) > 24 {
			c.errorf("Storage account '%s' (node: %s) is too long (%d chars). Maximum length is 24 characters.", explicit, node.ID, len(explicit))
		}
		if len(explicit) < 3 {
			c.errorf("Storage account '%s' (node: %s) is too short (%d chars). Minimum length is 3 characters.", explicit, node.ID, len(explicit))
		}
		if len(c.errors) > before {
			c.suggestions = append(c.suggestions, fmt.Sprintf("Use accountName '%s' or leave it unset", account))
			return
		}
	}
	if account != name {
		c.warn(node, fmt.Sprintf(
			"Storage account name '%s' (node: %s) will be deployed as '%s'.",
			name, node.ID, account,
		))
	}

	if len(account) < v.policy.MinStorageNameLength {
		c.warn(node, fmt.Sprintf(
			"Storage account '%s' (node: %s) is very short. Short names are more likely to be taken globally.",
			account, node.ID,
		))
		c.suggestions = append(c.suggestions, fmt.Sprintf("Try '%s%s%s' or add a random suffix", account, g.Project, g.Env))
	}
	for _, common := range v.policy.CommonStorageNames {
		if account == common {
			c.warn(node, fmt.Sprintf(
				"Storage account '%s' (node: %s) uses a very common name. Storage account names are globally unique and this one is likely taken.",
				account, node.ID,
			))
			c.suggestions = append(c.suggestions, fmt.Sprintf("Use a more unique name like '%s%s%s' with random characters", account, g.Project, g.Env))
			break
		}
	}
}

func (v *Validator) checkDuplicates(c *check) {
	seen := make(map[string]int)
	var dups []string
	for _, node := range c.g.Nodes {
		seen[node.ID]++
		if seen[node.ID] == 2 {
			dups = append(dups, node.ID)
		}
	}
	if len(dups) > 0 {
		c.errorf("Duplicate node IDs found: %s. Each node must have a unique ID.", strings.Join(dups, ", "))
	}
}

// checkLogicalNames reports nodes of one kind whose names derive the same resource names.
func (v *Validator) checkLogicalNames(c *check) {
	type key struct {
		kind    fabric.Kind
		logical string
	}
	owners := make(map[key][]string)
	var order []key
	for _, node := range c.g.Nodes {
		ctor, err := v.registry.CreatorFor(node.Kind)
		if err != nil {
			continue
		}
		logical, err := fabric.LogicalName(node, ctor.Kind())
		if err != nil {
			c.errorf("Node %s: %v", node.ID, err)
			continue
		}
		k := key{kind: ctor.Kind(), logical: logical}
		if _, ok := owners[k]; !ok {
			order = append(order, k)
		}
		if !slices.Contains(owners[k], node.ID) {
			owners[k] = append(owners[k], node.ID)
		}
	}
	for _, k := range order {
		ids := owners[k]
		if len(ids) < 2 {
			continue
		}
		c.errorf("Nodes %s all derive the %s name '%s'. Give them distinct names.", strings.Join(ids, ", "), k.kind, k.logical)
	}
}

// checkAccountNames reports nodes that derive the same storage account name. Account names are
// global, and function apps get one next to the accounts of object-storage nodes.
func (v *Validator) checkAccountNames(c *check) {
	owners := make(map[string][]string)
	var order []string
	for _, node := range c.g.Nodes {
		account, ok := v.accountName(node)
		if !ok {
			continue
		}
		if _, seen := owners[account]; !seen {
			order = append(order, account)
		}
		if !slices.Contains(owners[account], node.ID) {
			owners[account] = append(owners[account], node.ID)
		}
	}
	for _, account := range order {
		if ids := owners[account]; len(ids) > 1 {
			c.errorf("Nodes %s all derive the storage account name '%s'. Give them distinct names.", strings.Join(ids, ", "), account)
		}
	}
}

// accountName is the storage account a node deploys, if any.
func (v *Validator) accountName(node ir.Node) (string, bool) {
	ctor, err := v.registry.CreatorFor(node.Kind)
	if err != nil {
		return "", false
	}
	switch ctor.Kind() {
	case fabric.ObjectStorage:
		name, _ := node.Props["accountName"].(string)
		if name == "" {
			name = node.DisplayName()
		}
		return azure.StorageAccountName(name), true
	case fabric.FunctionCompute:
		logical, err := fabric.LogicalName(node, fabric.FunctionCompute)
		if err != nil {
			return "", false
		}
		return azure.FunctionStorageAccountName(logical), true
	}
	return "", false
}

func (v *Validator) checkEdges(c *check) {
	ids := c.g.NodeIDs()
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	seen := make(map[ir.Edge]struct{})
	// derived maps the names an edge's binding is declared under to the first edge using them.
	derived := make(map[string]ir.Edge)
	for i, edge := range c.g.Edges {
		if edge.From == "" || edge.To == "" {
			c.errorf("Edge %d is missing an endpoint (from: '%s', to: '%s').", i, edge.From, edge.To)
			continue
		}
		if _, ok := known[edge.From]; !ok {
			c.errorf("Edge references unknown source node: '%s'. Available nodes: %s", edge.From, strings.Join(ids, ", "))
		}
		if _, ok := known[edge.To]; !ok {
			c.errorf("Edge references unknown destination node: '%s'. Available nodes: %s", edge.To, strings.Join(ids, ", "))
		}
		if intent := edge.EffectiveIntent(); intent != ir.IntentNotify {
			c.warnings = append(c.warnings, warning{message: fmt.Sprintf(
				"Edge %s has intent '%s'; only '%s' edges are connected, this one will be skipped.", edge, intent, ir.IntentNotify,
			)})
		}
		norm := edge.Normalized()
		if _, dup := seen[norm]; dup {
			c.warnings = append(c.warnings, warning{message: fmt.Sprintf("Edge %s is declared more than once.", edge)})
			continue
		}
		seen[norm] = struct{}{}
		if norm.Intent != ir.IntentNotify {
			continue
		}
		for _, name := range []string{strings.TrimSuffix(fabric.BindKey(norm, ""), "-"), fabric.SubscriptionName(norm)} {
			if other, clash := derived[name]; clash {
				c.errorf("Edges %s and %s derive the same name '%s'. Give their nodes ids that differ after sanitizing.", other, edge, name)
				break
			}
			derived[name] = norm
		}
	}
}

// report applies escalations and assembles the final report.
func (v *Validator) report(c *check) Report {
	log := zap.L().With(zap.String("stack", c.g.StackName()))
	r := Report{
		Errors:      append([]string{}, c.errors...),
		Warnings:    []string{},
		Suggestions: append([]string{}, c.suggestions...),
	}
	for _, w := range c.warnings {
		if rule, ok := v.escalate(c.g, w); ok {
			log.Debug("escalated warning", zap.String("rule", rule), zap.String("warning", w.message))
			r.Errors = append(r.Errors, w.message)
			continue
		}
		r.Warnings = append(r.Warnings, w.message)
	}
	r.Valid = len(r.Errors) == 0
	log.Debug("validated graph",
		zap.Bool("valid", r.Valid),
		zap.Int("errors", len(r.Errors)),
		zap.Int("warnings", len(r.Warnings)),
	)
	return r
}

func (v *Validator) escalate(g *ir.Graph, w warning) (string, bool) {
	vars := map[string]any{
		"warning": w.message,
		"kind":    w.kind,
		"project": g.Project,
		"env":     g.Env,
	}
	for _, rule := range v.escalations {
		ok, err := rule.matches(vars)
		if err != nil {
			zap.L().Warn("escalation rule failed", zap.String("rule", rule.expr), zap.Error(err))
			continue
		}
		if ok {
			return rule.expr, true
		}
	}
	return "", false
}

func (c *check) errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *check) warn(node ir.Node, message string) {
	c.warnings = append(c.warnings, warning{kind: string(fabric.NormalizeKind(node.Kind)), message: message})
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Report.Errors, "; "))
}

func (e *ValidationError) ErrorCode() fabric_errs.ErrorCode {
	return fabric_errs.ValidationCode
}

func (e *ValidationError) ToJSONMap() map[string]any {
	return map[string]any{
		"validation": e.Report,
	}
}
