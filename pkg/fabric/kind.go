package fabric

import (
	"sort"
	"strings"
)

// Kind is a capability tag naming the construction recipe for a node.
type Kind string

const (
	ObjectStorage    Kind = "object-storage"
	MessageQueue     Kind = "message-queue"
	ContainerRuntime Kind = "container-runtime"
	VirtualMachine   Kind = "virtual-machine"
	FunctionCompute  Kind = "function-compute"
	RelationalDB     Kind = "relational-db"
	DocumentDB       Kind = "document-db"
	APIGateway       Kind = "api-gateway"
	SecretStore      Kind = "secret-store"
	Telemetry        Kind = "telemetry"
	VirtualNetwork   Kind = "virtual-network"
)

// AllKinds lists every capability in a fixed order.
var AllKinds = []Kind{
	ObjectStorage,
	MessageQueue,
	ContainerRuntime,
	VirtualMachine,
	FunctionCompute,
	RelationalDB,
	DocumentDB,
	APIGateway,
	SecretStore,
	Telemetry,
	VirtualNetwork,
}

// kindAliases maps the vendor-specific tags accepted by earlier clients to capabilities.
var kindAliases = map[string]Kind{
	"azure.storage":       ObjectStorage,
	"azure.servicebus":    MessageQueue,
	"azure.containerapp":  ContainerRuntime,
	"azure.vm":            VirtualMachine,
	"azure.functionapp":   FunctionCompute,
	"azure.sql":           RelationalDB,
	"azure.cosmosdb":      DocumentDB,
	"azure.apimanagement": APIGateway,
	"azure.keyvault":      SecretStore,
	"azure.appinsights":   Telemetry,
	"azure.vnet":          VirtualNetwork,
}

// domains are the output key prefixes per kind.
var domains = map[Kind]string{
	ObjectStorage:    "storage",
	MessageQueue:     "servicebus",
	ContainerRuntime: "containerapp",
	VirtualMachine:   "vm",
	FunctionCompute:  "functionapp",
	RelationalDB:     "sql",
	DocumentDB:       "cosmosdb",
	APIGateway:       "apimanagement",
	SecretStore:      "keyvault",
	Telemetry:        "appinsights",
	VirtualNetwork:   "vnet",
}

// NormalizeKind resolves aliases. Unknown tags are returned unchanged so the registry can
// report them.
func NormalizeKind(s string) Kind {
	if k, ok := kindAliases[strings.TrimSpace(s)]; ok {
		return k
	}
	return Kind(strings.TrimSpace(s))
}

// Domain is the output key prefix for the kind.
func (k Kind) Domain() string {
	if d, ok := domains[k]; ok {
		return d
	}
	return string(k)
}

// LogicalNameLength is the maximum length of the logical name derived from a node of this kind.
func (k Kind) LogicalNameLength() int {
	if k == ObjectStorage {
		return 20
	}
	return 40
}

// Aliases returns the legacy tags that resolve to k, sorted.
func (k Kind) Aliases() []string {
	var aliases []string
	for alias, kind := range kindAliases {
		if kind == k {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return aliases
}

func sortKinds(kinds []Kind) {
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
}
