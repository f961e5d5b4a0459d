package fabric

import (
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/sanitization/azure"
)

// functionConstructor realizes function-compute nodes as a Linux function app on its own plan,
// backed by a dedicated storage account.
//
// Props: sku (Y1, the consumption plan; any other sku runs on ElasticPremium).
//
// Outputs: functionapp-<name>-url, functionapp-<name>-name.
type functionConstructor struct{}

type functionProps struct {
	Sku string `mapstructure:"sku"`
}

func (functionConstructor) Kind() Kind { return FunctionCompute }

func (functionConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, FunctionCompute)
	if err != nil {
		return nil, err
	}
	props := functionProps{Sku: "Y1"}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}
	rec := newRecord(node, FunctionCompute, logical)

	storage, err := plan.Declare(TypeStorageAccount, "funcst-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"accountName":       azure.FunctionStorageAccountName(logical),
		"sku":               map[string]any{"name": "Standard_LRS"},
		"kind":              "StorageV2",
	})
	if err != nil {
		return nil, err
	}
	rec.add("storage", storage)

	keys := plan.Invoke(InvokeListStorageAccountKeys, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"accountName":       storage.Attr("name"),
	})
	conn := storageConnectionString(storage, keys)

	tier := "ElasticPremium"
	if props.Sku == "Y1" {
		tier = "Dynamic"
	}
	servicePlan, err := plan.Declare(TypeAppServicePlan, "plan-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"kind":              "FunctionApp",
		// required for Linux function apps
		"reserved": true,
		"sku":      map[string]any{"name": props.Sku, "tier": tier},
	})
	if err != nil {
		return nil, err
	}
	rec.add("plan", servicePlan)

	app, err := plan.Declare(TypeWebApp, "func-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"serverFarmId":      servicePlan.ID(),
		"kind":              "functionapp",
		"siteConfig": map[string]any{
			"appSettings": []any{
				map[string]any{"name": "AzureWebJobsStorage", "value": conn},
				map[string]any{"name": "FUNCTIONS_EXTENSION_VERSION", "value": "~4"},
				map[string]any{"name": "WEBSITE_CONTENTAZUREFILECONNECTIONSTRING", "value": conn},
				map[string]any{"name": "WEBSITE_CONTENTSHARE", "value": logical},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	rec.add("app", app)

	url := provision.Sprintf("https://%s", app.Attr("defaultHostName"))
	rec.output("url", url)
	rec.output("name", app.Attr("name"))
	rec.export("functionapp-url", url)
	rec.export("functionapp-name", app.Attr("name"))
	return rec, nil
}
