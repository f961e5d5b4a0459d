package fabric

import (
	"strings"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// cosmosConstructor realizes document-db nodes as a Cosmos DB account with one SQL database and
// one container.
//
// Props: kind (GlobalDocumentDB), databaseName (db-<name>), containerName (container-<name>),
// partitionKey (/id).
//
// Outputs: cosmosdb-<name>-endpoint, cosmosdb-<name>-primaryKey (secret).
type cosmosConstructor struct{}

type cosmosProps struct {
	Kind          string `mapstructure:"kind"`
	DatabaseName  string `mapstructure:"databaseName"`
	ContainerName string `mapstructure:"containerName"`
	PartitionKey  string `mapstructure:"partitionKey"`
}

func (cosmosConstructor) Kind() Kind { return DocumentDB }

// cosmosDatabaseName strips the resource prefixes callers tend to put in node names so the
// database id reads db-<name>.
func cosmosDatabaseName(logical string) string {
	name := strings.NewReplacer("cosmosdb-", "", "cosmos-", "").Replace(logical)
	if !strings.HasPrefix(name, "db-") {
		name = "db-" + name
	}
	return name
}

func (cosmosConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, DocumentDB)
	if err != nil {
		return nil, err
	}
	props := cosmosProps{
		Kind:          "GlobalDocumentDB",
		ContainerName: "container-" + logical,
		PartitionKey:  "/id",
	}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}
	if props.DatabaseName == "" {
		props.DatabaseName = cosmosDatabaseName(logical)
	}
	rec := newRecord(node, DocumentDB, logical)

	account, err := plan.Declare(TypeCosmosAccount, "cosmos-"+logical, map[string]any{
		"resourceGroupName":        scope.ResourceGroupName(),
		"location":                 scope.Location,
		"databaseAccountOfferType": "Standard",
		"locations": []any{
			map[string]any{"locationName": scope.Location, "failoverPriority": 0},
		},
		"consistencyPolicy": map[string]any{"defaultConsistencyLevel": "Session"},
		"kind":              props.Kind,
	})
	if err != nil {
		return nil, err
	}
	rec.add("account", account)

	// databaseName goes in the URI path and must match the id in the resource body
	database, err := plan.Declare(TypeCosmosSQLDatabase, "cosmosdb-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"accountName":       account.Attr("name"),
		"databaseName":      props.DatabaseName,
		"resource":          map[string]any{"id": props.DatabaseName},
	})
	if err != nil {
		return nil, err
	}
	rec.add("database", database)

	container, err := plan.Declare(TypeCosmosSQLContainer, "cosmoscontainer-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"accountName":       account.Attr("name"),
		"databaseName":      database.Attr("name"),
		"containerName":     props.ContainerName,
		"resource": map[string]any{
			"id": props.ContainerName,
			"partitionKey": map[string]any{
				"paths": []any{props.PartitionKey},
				"kind":  "Hash",
			},
		},
	})
	if err != nil {
		return nil, err
	}
	rec.add("container", container)

	keys := plan.Invoke(InvokeListCosmosAccountKeys, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"accountName":       account.Attr("name"),
	})

	endpoint := account.Attr("documentEndpoint")
	rec.output("endpoint", endpoint)
	rec.output("primaryKey", provision.Secret(keys.Attr("primaryMasterKey")))
	rec.export("cosmos-endpoint", endpoint)
	rec.export("cosmos-database", database.Attr("name"))
	rec.export("cosmos-container", container.Attr("name"))
	return rec, nil
}
