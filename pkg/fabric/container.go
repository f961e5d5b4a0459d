package fabric

import (
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// containerConstructor realizes container-runtime nodes as a container app with external ingress,
// running in its own managed environment that ships logs to a Log Analytics workspace.
//
// Props: image (hello world sample), cpu (0.25), memory (0.5Gi), targetPort (8000),
// env (map of plain environment variables).
//
// Outputs: containerapp-<name>-fqdn, containerapp-<name>-name.
type containerConstructor struct{}

const defaultContainerImage = "mcr.microsoft.com/azuredocs/containerapps-helloworld:latest"

type containerProps struct {
	Image      string            `mapstructure:"image"`
	CPU        float64           `mapstructure:"cpu"`
	Memory     string            `mapstructure:"memory"`
	TargetPort int               `mapstructure:"targetPort"`
	Env        map[string]string `mapstructure:"env"`
}

func (containerConstructor) Kind() Kind { return ContainerRuntime }

func (containerConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, ContainerRuntime)
	if err != nil {
		return nil, err
	}
	props := containerProps{
		Image:      defaultContainerImage,
		CPU:        0.25,
		Memory:     "0.5Gi",
		TargetPort: 8000,
	}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}

	rec := newRecord(node, ContainerRuntime, logical)
	workspace, err := plan.Declare(TypeLogAnalyticsWorkspace, "log-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"sku":               map[string]any{"name": "PerGB2018"},
		"retentionInDays":   30,
	})
	if err != nil {
		return nil, err
	}
	rec.add("workspace", workspace)

	// the workspace resource does not expose its keys
	sharedKeys := plan.Invoke(InvokeGetWorkspaceSharedKey, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"workspaceName":     workspace.Attr("name"),
	})

	env, err := plan.Declare(TypeManagedEnvironment, "cae-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"appLogsConfiguration": map[string]any{
			"destination": "log-analytics",
			"logAnalyticsConfiguration": map[string]any{
				"customerId": workspace.Attr("customerId"),
				"sharedKey":  provision.Secret(sharedKeys.Attr("primarySharedKey")),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	rec.add("environment", env)

	container := map[string]any{
		"name":  logical,
		"image": props.Image,
		"resources": map[string]any{
			"cpu":    props.CPU,
			"memory": props.Memory,
		},
	}
	if len(props.Env) > 0 {
		container["env"] = sortedEnv(props.Env)
	}
	app, err := plan.Declare(TypeContainerApp, "ca-"+logical, map[string]any{
		"resourceGroupName":    scope.ResourceGroupName(),
		"location":             scope.Location,
		"managedEnvironmentId": env.ID(),
		"configuration": map[string]any{
			"ingress": map[string]any{
				"external":   true,
				"targetPort": props.TargetPort,
			},
		},
		"template": map[string]any{
			"containers": []any{container},
		},
	})
	if err != nil {
		return nil, err
	}
	rec.add("app", app)

	fqdn := app.Attr("configuration.ingress.fqdn")
	rec.output("fqdn", fqdn)
	rec.output("name", app.Attr("name"))
	rec.export("containerapp-fqdn", fqdn)
	rec.export("containerapp-name", app.Attr("name"))
	return rec, nil
}
