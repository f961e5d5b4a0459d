package fabric

import (
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/provision"
)

// queueConstructor realizes message-queue nodes as a Service Bus namespace, a queue and a
// namespace rule granting listen, send and manage rights.
//
// Props: sku (Basic), queueName (q-<name>), partition (false).
//
// Outputs: servicebus-<name>-queueName, servicebus-<name>-conn (secret).
type queueConstructor struct{}

type queueProps struct {
	Sku       string `mapstructure:"sku"`
	QueueName string `mapstructure:"queueName"`
	Partition bool   `mapstructure:"partition"`
}

func (queueConstructor) Kind() Kind { return MessageQueue }

func (queueConstructor) Construct(node ir.Node, scope Scope, plan *provision.Plan) (*Record, error) {
	logical, err := LogicalName(node, MessageQueue)
	if err != nil {
		return nil, err
	}
	props := queueProps{Sku: "Basic", QueueName: "q-" + logical}
	if err := decodeProps(node, &props); err != nil {
		return nil, err
	}

	rec := newRecord(node, MessageQueue, logical)
	ns, err := plan.Declare(TypeServiceBusNamespace, "sb-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"location":          scope.Location,
		"sku":               map[string]any{"name": props.Sku},
	})
	if err != nil {
		return nil, err
	}
	rec.add("namespace", ns)

	queue, err := plan.Declare(TypeServiceBusQueue, "sbq-"+logical, map[string]any{
		"resourceGroupName":  scope.ResourceGroupName(),
		"namespaceName":      ns.Attr("name"),
		"queueName":          props.QueueName,
		"enablePartitioning": props.Partition,
	})
	if err != nil {
		return nil, err
	}
	rec.add("queue", queue)

	rule, err := plan.Declare(TypeServiceBusAuthRule, "sbrule-"+logical, map[string]any{
		"resourceGroupName": scope.ResourceGroupName(),
		"namespaceName":     ns.Attr("name"),
		"rights":            []any{"Listen", "Send", "Manage"},
	})
	if err != nil {
		return nil, err
	}
	rec.add("rule", rule)

	keys := plan.Invoke(InvokeListServiceBusKeys, map[string]any{
		"resourceGroupName":     scope.ResourceGroupName(),
		"namespaceName":         ns.Attr("name"),
		"authorizationRuleName": rule.Attr("name"),
	})
	conn := provision.Secret(keys.Attr("primaryConnectionString"))

	rec.output("queueName", queue.Attr("name"))
	rec.output("conn", conn)
	rec.export("servicebus-queue", queue.Attr("name"))
	rec.export("servicebus-conn", conn)
	return rec, nil
}
