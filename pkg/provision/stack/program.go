package stack

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// resourceState is the generic state of a provider resource. It lists the top-level outputs that
// references may start from; nested attributes are reached through these.
type resourceState struct {
	pulumi.CustomResourceState

	Name                     pulumi.AnyOutput `pulumi:"name"`
	Location                 pulumi.AnyOutput `pulumi:"location"`
	Properties               pulumi.AnyOutput `pulumi:"properties"`
	Configuration            pulumi.AnyOutput `pulumi:"configuration"`
	AddressSpace             pulumi.AnyOutput `pulumi:"addressSpace"`
	PrimaryEndpoints         pulumi.AnyOutput `pulumi:"primaryEndpoints"`
	DocumentEndpoint         pulumi.AnyOutput `pulumi:"documentEndpoint"`
	FullyQualifiedDomainName pulumi.AnyOutput `pulumi:"fullyQualifiedDomainName"`
	DefaultHostName          pulumi.AnyOutput `pulumi:"defaultHostName"`
	IPAddress                pulumi.AnyOutput `pulumi:"ipAddress"`
	CustomerID               pulumi.AnyOutput `pulumi:"customerId"`
	InstrumentationKey       pulumi.AnyOutput `pulumi:"instrumentationKey"`
	ConnectionString         pulumi.AnyOutput `pulumi:"connectionString"`
	AppID                    pulumi.AnyOutput `pulumi:"appId"`
	GatewayURL               pulumi.AnyOutput `pulumi:"gatewayUrl"`
	PortalURL                pulumi.AnyOutput `pulumi:"portalUrl"`
	Result                   pulumi.AnyOutput `pulumi:"result"`
}

func (r *resourceState) output(name string) (pulumi.AnyOutput, bool) {
	rv := reflect.ValueOf(r).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).Tag.Get("pulumi") == name {
			out, ok := rv.Field(i).Interface().(pulumi.AnyOutput)
			return out, ok
		}
	}
	return pulumi.AnyOutput{}, false
}

// program replays a provision.Plan against a Pulumi context.
type program struct {
	plan     *provision.Plan
	versions map[string]string

	ctx       *pulumi.Context
	resources map[string]*resourceState
	invokes   map[*provision.Invoke]pulumi.AnyOutput
}

// Program returns the inline Pulumi program that declares every resource and export of plan.
// versions pins provider plugin versions by package name (e.g. "azure-native").
func Program(plan *provision.Plan, versions map[string]string) pulumi.RunFunc {
	return func(ctx *pulumi.Context) error {
		p := &program{
			plan:      plan,
			versions:  versions,
			ctx:       ctx,
			resources: make(map[string]*resourceState),
			invokes:   make(map[*provision.Invoke]pulumi.AnyOutput),
		}
		return p.run()
	}
}

// packageName is the provider package of a type or function token.
func packageName(token string) string {
	pkg, _, _ := strings.Cut(token, ":")
	return pkg
}

func (p *program) run() error {
	for _, r := range p.plan.Resources() {
		if err := p.register(r); err != nil {
			return fmt.Errorf("could not register %s: %w", r, err)
		}
	}
	for _, key := range p.plan.ExportKeys() {
		in, err := p.input(p.plan.Exports()[key])
		if err != nil {
			return fmt.Errorf("output %s: %w", key, err)
		}
		if in == nil {
			in = pulumi.Any(nil)
		}
		p.ctx.Export(key, in)
	}
	return nil
}

func (p *program) register(r *provision.Resource) error {
	props, err := p.input(r.Props)
	if err != nil {
		return err
	}
	var opts []pulumi.ResourceOption
	if v, ok := p.versions[packageName(r.Type)]; ok {
		opts = append(opts, pulumi.Version(v))
	}
	if len(r.DependsOn) > 0 {
		deps := make([]pulumi.Resource, 0, len(r.DependsOn))
		for _, d := range r.DependsOn {
			state, ok := p.resources[d.URN()]
			if !ok {
				return fmt.Errorf("depends on %s, which is declared after it", d)
			}
			deps = append(deps, state)
		}
		opts = append(opts, pulumi.DependsOn(deps))
	}

	state := &resourceState{}
	if err := p.ctx.RegisterResource(r.Type, r.Name, props, state, opts...); err != nil {
		return err
	}
	p.resources[r.URN()] = state
	return nil
}

// input converts a property tree into Pulumi inputs. Nil leaves are dropped.
func (p *program) input(v any) (pulumi.Input, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil

	case provision.AttrRef:
		return p.attr(v)

	case provision.InvokeRef:
		out, err := p.invoke(v.Invoke)
		if err != nil {
			return nil, err
		}
		return lookup(out, v.Path), nil

	case provision.Apply:
		args := make([]any, len(v.Args))
		for i, arg := range v.Args {
			in, err := p.input(arg)
			if err != nil {
				return nil, err
			}
			args[i] = in
		}
		fn := v.Fn
		return pulumi.All(args...).ApplyT(func(resolved []any) (any, error) {
			return fn(resolved)
		}), nil

	case provision.SecretInput:
		inner, err := p.input(v.Value)
		if err != nil {
			return nil, err
		}
		return pulumi.ToSecret(inner), nil

	case map[string]any:
		m := make(pulumi.Map, len(v))
		for k, item := range v {
			in, err := p.input(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if in != nil {
				m[k] = in
			}
		}
		return m, nil

	case []any:
		arr := make(pulumi.Array, 0, len(v))
		for i, item := range v {
			in, err := p.input(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if in != nil {
				arr = append(arr, in)
			}
		}
		return arr, nil

	case []string:
		return pulumi.ToStringArray(v), nil
	case string:
		return pulumi.String(v), nil
	case bool:
		return pulumi.Bool(v), nil
	case int:
		return pulumi.Int(v), nil
	case float64:
		return pulumi.Float64(v), nil
	default:
		return pulumi.Any(v), nil
	}
}

func (p *program) attr(ref provision.AttrRef) (pulumi.Input, error) {
	state, ok := p.resources[ref.Resource.URN()]
	if !ok {
		return nil, fmt.Errorf("%s is referenced before it is declared", ref.Resource)
	}
	if ref.Path == "id" {
		return state.ID().ApplyT(func(id pulumi.ID) string { return string(id) }), nil
	}
	top, rest, _ := strings.Cut(ref.Path, ".")
	out, ok := state.output(top)
	if !ok {
		return nil, fmt.Errorf("%s has no output %q", ref.Resource, top)
	}
	if rest == "" {
		return out, nil
	}
	return lookup(out, rest), nil
}

// invoke calls a provider function once all of its arguments are known. Each Invoke is called once
// however many references read from it.
func (p *program) invoke(inv *provision.Invoke) (pulumi.AnyOutput, error) {
	if out, ok := p.invokes[inv]; ok {
		return out, nil
	}
	args, err := p.input(inv.Args)
	if err != nil {
		return pulumi.AnyOutput{}, fmt.Errorf("%s: %w", inv.Token, err)
	}
	var opts []pulumi.InvokeOption
	if v, ok := p.versions[packageName(inv.Token)]; ok {
		opts = append(opts, pulumi.Version(v))
	}
	out := pulumi.All(args).ApplyT(func(resolved []any) (any, error) {
		result := map[string]any{}
		if err := p.ctx.Invoke(inv.Token, resolved[0], &result, opts...); err != nil {
			return nil, fmt.Errorf("%s: %w", inv.Token, err)
		}
		return result, nil
	}).(pulumi.AnyOutput)
	p.invokes[inv] = out
	return out, nil
}

// lookup navigates into a resolved output. Attributes the provider did not return resolve to nil.
func lookup(out pulumi.AnyOutput, path string) pulumi.AnyOutput {
	return out.ApplyT(func(v any) any {
		found, _ := provision.Lookup(v, path)
		return found
	}).(pulumi.AnyOutput)
}
