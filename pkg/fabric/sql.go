package fabric

import (
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// sqlConstructor realizes relational-db nodes as a SQL server, one database and a firewall rule
// admitting other Azure services.
//
// Props: adminLogin (sqladmin), adminPassword (generated when absent), serviceTier (S0),
// version (12.0).
//
// Outputs: sql-<name>-serverName, sql-<name>-databaseName, sql-<name>-connectionString (secret).
type sqlConstructor struct{}

type sqlProps struct {
	AdminLogin    string `mapstructure:"adminLogin"`
	AdminPassword string `mapstructure:"adminPassword"`
	ServiceTier   string `mapstructure:"serviceTier"`
	Version       string `mapstructure:"version"`
}

func (sqlConstructor) Kind() Kind { return RelationalDB }

func (sqlConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, RelationalDB)
	if err != nil {
		return nil, err
	}
	props := sqlProps{AdminLogin: "sqladmin", ServiceTier: "S0", Version: "12.0"}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}
	rec := newRecord(node, RelationalDB, logical)

	password, err := adminPassword(plan, props.AdminPassword, "pw-sql-"+logical)
	if err != nil {
		return nil, err
	}

	server, err := plan.Declare(TypeSQLServer, "sql-"+logical, map[string]any{
		"resourceGroupName":          scope.ResourceGroupName(),
		"location":                   scope.Location,
		"administratorLogin":         props.AdminLogin,
		"administratorLoginPassword": password,
		"version":                    props.Version,
	})
	if err != nil {
		return nil, err
	}
	rec.add("server", server)

	db, err := plan.Declare(TypeSQLDatabase, "db-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"serverName":        server.Attr("name"),
		"sku":               map[string]any{"name": props.ServiceTier, "tier": "Standard"},
	})
	if err != nil {
		return nil, err
	}
	rec.add("database", db)

	// 0.0.0.0 - 0.0.0.0 is the special range meaning "Azure services"
	fw, err := plan.Declare(TypeSQLFirewallRule, "fw-"+logical+"-azure", map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"serverName":        server.Attr("name"),
		"startIpAddress":    "0.0.0.0",
		"endIpAddress":      "0.0.0.0",
	})
	if err != nil {
		return nil, err
	}
	rec.add("firewall", fw)

	fqdn := server.Attr("fullyQualifiedDomainName")
	conn := provision.Secret(provision.Sprintf(
		"Server=%s;Database=%s;User Id=%s;Password=%s;",
		fqdn, db.Attr("name"), props.AdminLogin, password,
	))

	rec.output("serverName", fqdn)
	rec.output("databaseName", db.Attr("name"))
	rec.output("connectionString", conn)
	rec.export("sql-server", fqdn)
	rec.export("sql-database", db.Attr("name"))
	return rec, nil
}
