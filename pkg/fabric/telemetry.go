package fabric

import (
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// telemetryConstructor realizes telemetry nodes as an Application Insights component that
// ingests directly, without a Log Analytics workspace. It takes no props.
//
// Outputs: appinsights-<name>-instrumentationKey, appinsights-<name>-connectionString (secret),
// appinsights-<name>-appId.
type telemetryConstructor struct{}

func (telemetryConstructor) Kind() Kind { return Telemetry }

func (telemetryConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, Telemetry)
	if err != nil {
		return nil, err
	}
	rec := newRecord(node, Telemetry, logical)
	insights, err := plan.Declare(TypeAppInsights, "appi-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"kind":              "web",
		"applicationType":   "web",
		"ingestionMode":     "ApplicationInsights",
	})
	if err != nil {
		return nil, err
	}
	rec.add("insights", insights)

	conn := provision.Secret(insights.Attr("connectionString"))
	rec.output("instrumentationKey", insights.Attr("instrumentationKey"))
	rec.output("connectionString", conn)
	rec.output("appId", insights.Attr("appId"))
	rec.export("appinsights-key", insights.Attr("instrumentationKey"))
	rec.export("appinsights-conn", conn)
	return rec, nil
}
