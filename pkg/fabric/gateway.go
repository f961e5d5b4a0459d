package fabric

import (
	"fmt"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/mitchellh/mapstructure"
)

// gatewayConstructor realizes api-gateway nodes as an API Management service.
//
// Props: sku (a name, or {name, capacity}; Developer with capacity 1), publisherName (Contoso),
// publisherEmail (admin@contoso.com). Consumption skus have no capacity.
//
// Outputs: apimanagement-<name>-gatewayUrl, apimanagement-<name>-portalUrl.
type gatewayConstructor struct{}

type (
	gatewayProps struct {
		Sku            any    `mapstructure:"sku"`
		PublisherName  string `mapstructure:"publisherName"`
		PublisherEmail string `mapstructure:"publisherEmail"`
	}

	gatewaySku struct {
		Name     string `mapstructure:"name"`
		Capacity int    `mapstructure:"capacity"`
	}
)

func (gatewayConstructor) Kind() Kind { return APIGateway }

func parseGatewaySku(v any) (gatewaySku, error) {
	sku := gatewaySku{Name: "Developer", Capacity: 1}
	switch v := v.(type) {
	case nil:
	case string:
		if v != "" {
			sku.Name = v
		}
	default:
		if err := mapstructure.WeakDecode(v, &sku); err != nil {
			return sku, fmt.Errorf("invalid sku: %w", err)
		}
		if sku.Name == "" {
			sku.Name = "Developer"
		}
	}
	return sku, nil
}

func (gatewayConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, APIGateway)
	if err != nil {
		return nil, err
	}
	props := gatewayProps{PublisherName: "Contoso", PublisherEmail: "admin@contoso.com"}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}
	sku, err := parseGatewaySku(props.Sku)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", node.ID, err)
	}
	skuProps := map[string]any{"name": sku.Name}
	if sku.Name != "Consumption" {
		skuProps["capacity"] = sku.Capacity
	}

	rec := newRecord(node, APIGateway, logical)
	apim, err := plan.Declare(TypeAPIManagementService, "apim-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"publisherName":     props.PublisherName,
		"publisherEmail":    props.PublisherEmail,
		"sku":               skuProps,
	})
	if err != nil {
		return nil, err
	}
	rec.add("service", apim)

	rec.output("gatewayUrl", apim.Attr("gatewayUrl"))
	rec.output("portalUrl", apim.Attr("portalUrl"))
	rec.export("apim-gateway", apim.Attr("gatewayUrl"))
	rec.export("apim-portal", apim.Attr("portalUrl"))
	return rec, nil
}
