package provision

//go:generate mockgen -source=./engine.go --destination=../deployment/engine_mock_test.go --package=deployment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type (
	// Engine turns a declared Plan into real infrastructure. Engines own stack state, diffing
	// and the scheduling of independent resource creation.
	Engine interface {
		// Preview computes the changes converging plan would make, without touching infrastructure.
		Preview(ctx context.Context, stack Stack, plan *Plan) (ChangeSummary, error)
		// Converge creates, updates and deletes resources until they match plan.
		Converge(ctx context.Context, stack Stack, plan *Plan) (*ConvergeResult, error)
		// Destroy deletes every resource of the stack. It fails with ErrStackNotFound when the
		// stack has no record.
		Destroy(ctx context.Context, stack Stack) (ChangeSummary, error)
		// RemoveStack deletes the stack record itself.
		RemoveStack(ctx context.Context, stack Stack) error
	}

	// Stack identifies one deployment unit.
	Stack struct {
		Project     string
		Env         string
		Location    string
		Credentials *Credentials
	}

	ConvergeResult struct {
		Outputs  map[string]Value
		Changes  ChangeSummary
		Duration time.Duration
	}

	// Op is the kind of change made to a resource.
	Op string

	// ChangeSummary counts resources per change kind.
	ChangeSummary map[Op]int

	Credentials struct {
		ClientID       string `json:"clientId" yaml:"clientId" mapstructure:"client_id"`
		ClientSecret   string `json:"clientSecret" yaml:"clientSecret" mapstructure:"client_secret"`
		SubscriptionID string `json:"subscriptionId" yaml:"subscriptionId" mapstructure:"subscription_id"`
		TenantID       string `json:"tenantId" yaml:"tenantId" mapstructure:"tenant_id"`
	}
)

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
	OpSame    Op = "same"
)

var ErrStackNotFound = errors.New("stack not found")

func (s Stack) Name() string {
	return fmt.Sprintf("%s-%s", s.Project, s.Env)
}

func (s Stack) String() string {
	return s.Name()
}

func (s Stack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("project", s.Project)
	enc.AddString("env", s.Env)
	if s.Location != "" {
		enc.AddString("location", s.Location)
	}
	enc.AddBool("credentials", s.Credentials.Complete())
	return nil
}

// Changed is the number of resources that are not left as is.
func (c ChangeSummary) Changed() int {
	total := 0
	for op, n := range c {
		if op != OpSame {
			total += n
		}
	}
	return total
}

func (c ChangeSummary) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

func (c ChangeSummary) HasChanges() bool {
	return c.Changed() > 0
}

func (c ChangeSummary) String() string {
	if len(c) == 0 {
		return "no changes"
	}
	ops := make([]string, 0, len(c))
	for op := range c {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = fmt.Sprintf("%s=%d", op, c[Op(op)])
	}
	return strings.Join(parts, " ")
}

// Complete reports whether all four fields are set. A nil receiver is incomplete.
func (c *Credentials) Complete() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != "" && c.SubscriptionID != "" && c.TenantID != ""
}

// EnvVars are the provider authentication variables the credentials map to.
func (c *Credentials) EnvVars() map[string]string {
	if c == nil {
		return nil
	}
	vars := make(map[string]string, 4)
	for k, v := range map[string]string{
		"ARM_CLIENT_ID":       c.ClientID,
		"ARM_CLIENT_SECRET":   c.ClientSecret,
		"ARM_SUBSCRIPTION_ID": c.SubscriptionID,
		"ARM_TENANT_ID":       c.TenantID,
	} {
		if v != "" {
			vars[k] = v
		}
	}
	return vars
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ClientID: %s, SubscriptionID: %s, TenantID: %s, ClientSecret: %s}",
		c.ClientID, c.SubscriptionID, c.TenantID, redacted)
}

func (c Credentials) GoString() string {
	return c.String()
}
