package fabric

import (
	"fmt"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// networkConstructor realizes virtual-network nodes as a virtual network with one or more subnets.
//
// Props: addressSpaces ([10.0.0.0/16]), subnets ([{name: default, addressPrefix: 10.0.1.0/24}]).
//
// Outputs: vnet-<name>-id, vnet-<name>-addressSpace.
type networkConstructor struct{}

type (
	networkProps struct {
		AddressSpaces []string       `mapstructure:"addressSpaces"`
		Subnets       []subnetConfig `mapstructure:"subnets"`
	}

	subnetConfig struct {
		Name          string `mapstructure:"name"`
		AddressPrefix string `mapstructure:"addressPrefix"`
	}
)

func (networkConstructor) Kind() Kind { return VirtualNetwork }

func (networkConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, VirtualNetwork)
	if err != nil {
		return nil, err
	}
	var props networkProps
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}
	if len(props.AddressSpaces) == 0 {
		props.AddressSpaces = []string{"10.0.0.0/16"}
	}
	if len(props.Subnets) == 0 {
		props.Subnets = []subnetConfig{{Name: "default", AddressPrefix: "10.0.1.0/24"}}
	}

	rec := newRecord(node, VirtualNetwork, logical)
	prefixes := make([]any, len(props.AddressSpaces))
	for i, p := range props.AddressSpaces {
		prefixes[i] = p
	}
	vnet, err := plan.Declare(TypeVirtualNetwork, "vnet-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"addressSpace":      map[string]any{"addressPrefixes": prefixes},
	})
	if err != nil {
		return nil, err
	}
	rec.add("vnet", vnet)

	for i, cfg := range props.Subnets {
		if cfg.AddressPrefix == "" {
			cfg.AddressPrefix = "10.0.1.0/24"
		}
		subnetProps := map[string]any{
			"resourceGroupName":  scope.ResourceGroupName(),
			"virtualNetworkName": vnet.Attr("name"),
			"addressPrefix":      cfg.AddressPrefix,
		}
		if cfg.Name != "" {
			subnetProps["subnetName"] = cfg.Name
		}
		subnet, err := plan.Declare(TypeSubnet, fmt.Sprintf("subnet-%s-%d", logical, i), subnetProps)
		if err != nil {
			return nil, err
		}
		rec.add(fmt.Sprintf("subnet-%d", i), subnet)
	}

	rec.output("id", vnet.ID())
	rec.output("addressSpace", vnet.Attr("addressSpace.addressPrefixes"))
	rec.export("vnet-id", vnet.ID())
	rec.export("vnet-name", vnet.Attr("name"))
	return rec, nil
}
