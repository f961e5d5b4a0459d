package fabric

import (
	"github.com/google/uuid"
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/sanitization/azure"
)

// vaultConstructor realizes secret-store nodes as a standard key vault.
//
// Props: tenantId (the deployment's tenant, else the nil uuid).
//
// Outputs: keyvault-<name>-uri, keyvault-<name>-name.
type vaultConstructor struct{}

type vaultProps struct {
	TenantID string `mapstructure:"tenantId"`
}

func (vaultConstructor) Kind() Kind { return SecretStore }

func (vaultConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, SecretStore)
	if err != nil {
		return nil, err
	}
	props := vaultProps{TenantID: scope.TenantID}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}
	if props.TenantID == "" {
		props.TenantID = uuid.Nil.String()
	}

	rec := newRecord(node, SecretStore, logical)
	vault, err := plan.Declare(TypeKeyVault, "kv-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"vaultName":         azure.KeyVaultName(logical),
		"properties": map[string]any{
			"tenantId":                     props.TenantID,
			"sku":                          map[string]any{"family": "A", "name": "standard"},
			"enabledForDeployment":         true,
			"enabledForDiskEncryption":     true,
			"enabledForTemplateDeployment": true,
		},
	})
	if err != nil {
		return nil, err
	}
	rec.add("vault", vault)

	uri := vault.Attr("properties.vaultUri")
	rec.output("uri", uri)
	rec.output("name", vault.Attr("name"))
	rec.export("keyvault-uri", uri)
	rec.export("keyvault-name", vault.Attr("name"))
	return rec, nil
}
