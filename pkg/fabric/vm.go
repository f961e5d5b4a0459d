package fabric

import (
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// vmConstructor realizes virtual-machine nodes together with the network they need: a dedicated
// virtual network and subnet, a public address and a network interface.
//
// Props: vmSize (Standard_B1s), adminUsername (azureuser), adminPassword (generated when absent),
// osType (Linux or Windows), imagePublisher (Canonical), imageOffer (0001-com-ubuntu-server-jammy),
// imageSku (22_04-lts-gen2), vnetAddressSpace (10.0.0.0/16), subnetAddressPrefix (10.0.1.0/24).
//
// Outputs: vm-<name>-publicIp, vm-<name>-adminUsername, vm-<name>-adminPassword (secret).
type vmConstructor struct{}

type vmProps struct {
	VMSize              string `mapstructure:"vmSize"`
	AdminUsername       string `mapstructure:"adminUsername"`
	AdminPassword       string `mapstructure:"adminPassword"`
	OSType              string `mapstructure:"osType"`
	ImagePublisher      string `mapstructure:"imagePublisher"`
	ImageOffer          string `mapstructure:"imageOffer"`
	ImageSku            string `mapstructure:"imageSku"`
	VnetAddressSpace    string `mapstructure:"vnetAddressSpace"`
	SubnetAddressPrefix string `mapstructure:"subnetAddressPrefix"`
}

func (vmConstructor) Kind() Kind { return VirtualMachine }

func (vmConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, VirtualMachine)
	if err != nil {
		return nil, err
	}
	props := vmProps{
		VMSize:              "Standard_B1s",
		AdminUsername:       "azureuser",
		OSType:              "Linux",
		ImagePublisher:      "Canonical",
		ImageOffer:          "0001-com-ubuntu-server-jammy",
		ImageSku:            "22_04-lts-gen2",
		VnetAddressSpace:    "10.0.0.0/16",
		SubnetAddressPrefix: "10.0.1.0/24",
	}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}
	rec := newRecord(node, VirtualMachine, logical)

	password, err := adminPassword(plan, props.AdminPassword, "pw-vm-"+logical)
	if err != nil {
		return nil, err
	}

	// prefixed with vm- so it cannot collide with a virtual-network node of the same name
	vnet, err := plan.Declare(TypeVirtualNetwork, "vnet-vm-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"addressSpace": map[string]any{
			"addressPrefixes": []any{props.VnetAddressSpace},
		},
	})
	if err != nil {
		return nil, err
	}
	rec.add("vnet", vnet)

	subnet, err := plan.Declare(TypeSubnet, "subnet-vm-"+logical, map[string]any{
		"resourceGroupName":  scope.ResourceGroupName(),
		"virtualNetworkName": vnet.Attr("name"),
		"addressPrefix":      props.SubnetAddressPrefix,
	})
	if err != nil {
		return nil, err
	}
	rec.add("subnet", subnet)

	pip, err := plan.Declare(TypePublicIPAddress, "pip-"+logical, map[string]any{
		"resourceGroupName":        scope.ResourceGroupName(),
		"location":                 scope.Location,
		"publicIPAllocationMethod": "Dynamic",
	})
	if err != nil {
		return nil, err
	}
	rec.add("publicIp", pip)

	nic, err := plan.Declare(TypeNetworkInterface, "nic-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"ipConfigurations": []any{
			map[string]any{
				"name":            "ipconfig1",
				"subnet":          map[string]any{"id": subnet.ID()},
				"publicIPAddress": map[string]any{"id": pip.ID()},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	rec.add("nic", nic)

	osProfile := map[string]any{
		"computerName":  logical,
		"adminUsername": props.AdminUsername,
		"adminPassword": password,
	}
	if props.OSType == "Windows" {
		osProfile["windowsConfiguration"] = map[string]any{"enableAutomaticUpdates": true}
	} else {
		osProfile["linuxConfiguration"] = map[string]any{"disablePasswordAuthentication": false}
	}

	vm, err := plan.Declare(TypeVirtualMachine, "vm-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"hardwareProfile":   map[string]any{"vmSize": props.VMSize},
		"osProfile":         osProfile,
		"networkProfile": map[string]any{
			"networkInterfaces": []any{map[string]any{"id": nic.ID()}},
		},
		"storageProfile": map[string]any{
			"imageReference": map[string]any{
				"publisher": props.ImagePublisher,
				"offer":     props.ImageOffer,
				"sku":       props.ImageSku,
				"version":   "latest",
			},
		},
	})
	if err != nil {
		return nil, err
	}
	rec.add("vm", vm)

	rec.output("publicIp", pip.Attr("ipAddress"))
	rec.output("adminUsername", props.AdminUsername)
	rec.output("adminPassword", password)
	rec.export("vm-ip", pip.Attr("ipAddress"))
	rec.export("vm-name", vm.Attr("name"))
	return rec, nil
}
