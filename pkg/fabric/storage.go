package fabric

import (
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/sanitization/azure"
)

// storageConstructor realizes object-storage nodes as a storage account with an optional blob
// container.
//
// Props (all optional):
//   - accountName: desired account name, tightened to the account naming rules (default: node name)
//   - accountKind: StorageV2
//   - sku: Standard_LRS
//   - containerName: creates a private blob container when set
//
// Outputs: storage-<name>-accountName, storage-<name>-conn (secret).
type storageConstructor struct{}

type storageProps struct {
	AccountName   string `mapstructure:"accountName"`
	AccountKind   string `mapstructure:"accountKind"`
	Sku           string `mapstructure:"sku"`
	ContainerName string `mapstructure:"containerName"`
}

func (storageConstructor) Kind() Kind { return ObjectStorage }

func (storageConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, ObjectStorage)
	if err != nil {
		return nil, err
	}
	props := storageProps{AccountKind: "StorageV2", Sku: "Standard_LRS"}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}
	desired := props.AccountName
	if desired == "" {
		desired = node.DisplayName()
	}

	rec := newRecord(node, ObjectStorage, logical)
	account, err := plan.Declare(TypeStorageAccount, "st-"+logical, map[string]any{
		"resourceGroupName":      scope.ResourceGroupName(),
		"location":               scope.Location,
		"accountName":            azure.StorageAccountName(desired),
		"sku":                    map[string]any{"name": props.Sku},
		"kind":                   props.AccountKind,
		"enableHttpsTrafficOnly": true,
		"minimumTlsVersion":      "TLS1_2",
		"allowBlobPublicAccess":  false,
	})
	if err != nil {
		return nil, err
	}
	rec.add("account", account)

	if props.ContainerName != "" {
		container, err := plan.Declare(TypeBlobContainer, "bc-"+logical, map[string]any{
			"resourceGroupName": scope.ResourceGroupName(),
			"accountName":       account.Attr("name"),
			"containerName":     props.ContainerName,
			"publicAccess":      "None",
		})
		if err != nil {
			return nil, err
		}
		rec.add("container", container)
	}

	keys := plan.Invoke(InvokeListStorageAccountKeys, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"accountName":       account.Attr("name"),
	})
	conn := storageConnectionString(account, keys)

	rec.output("accountName", account.Attr("name"))
	rec.output("conn", conn)
	rec.export("storage-conn", conn)
	rec.export("storage-account", account.Attr("name"))
	return rec, nil
}
