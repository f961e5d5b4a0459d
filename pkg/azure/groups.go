package azure

import (
	"context"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/klothoplatform/fabric/pkg/logging"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	// GroupDeleter deletes resource groups through the management API directly, bypassing any
	// stack. It is the recovery path for infrastructure whose stack record was lost.
	GroupDeleter struct {
		newClient    ClientFactory
		pollInterval time.Duration
	}

	// GroupsClient is the part of the resource groups API the deleter needs.
	GroupsClient interface {
		BeginDelete(ctx context.Context, name string) (Poller, error)
	}

	Poller interface {
		PollUntilDone(ctx context.Context, frequency time.Duration) error
	}

	ClientFactory func(creds provision.Credentials) (GroupsClient, error)

	armGroups struct {
		client *armresources.ResourceGroupsClient
	}

	armPoller struct {
		poller *runtime.Poller[armresources.ResourceGroupsClientDeleteResponse]
	}
)

var ErrIncompleteCredentials = errors.New("clientId, clientSecret, subscriptionId and tenantId are all required")

func NewGroupDeleter() *GroupDeleter {
	return &GroupDeleter{newClient: NewGroupsClient, pollInterval: 10 * time.Second}
}

// NewGroupDeleterWithClient uses factory to build the API client for each call.
func NewGroupDeleterWithClient(factory ClientFactory) *GroupDeleter {
	return &GroupDeleter{newClient: factory, pollInterval: time.Millisecond}
}

// NewGroupsClient authenticates with the service principal in creds.
func NewGroupsClient(creds provision.Credentials) (GroupsClient, error) {
	cred, err := azidentity.NewClientSecretCredential(creds.TenantID, creds.ClientID, creds.ClientSecret, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create client secret credential")
	}
	client, err := armresources.NewResourceGroupsClient(creds.SubscriptionID, cred, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create resource groups client")
	}
	return &armGroups{client: client}, nil
}

func (g *armGroups) BeginDelete(ctx context.Context, name string) (Poller, error) {
	poller, err := g.client.BeginDelete(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	return &armPoller{poller: poller}, nil
}

func (p *armPoller) PollUntilDone(ctx context.Context, frequency time.Duration) error {
	_, err := p.poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: frequency})
	return err
}

// DeleteGroup deletes the named resource group and waits for completion. A group that does not
// exist counts as deleted, so deleted is false only alongside an error.
func (d *GroupDeleter) DeleteGroup(ctx context.Context, creds provision.Credentials, name string) (bool, error) {
	log := logging.GetLogger(ctx).Named("azure").With(zap.String("resource_group", name))
	if !creds.Complete() {
		return false, ErrIncompleteCredentials
	}

	client, err := d.newClient(creds)
	if err != nil {
		return false, err
	}
	log.Info("deleting resource group directly")
	poller, err := client.BeginDelete(ctx, name)
	if IsNotFound(err) {
		log.Info("resource group does not exist")
		return true, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete resource group %s", name)
	}
	if err := poller.PollUntilDone(ctx, d.pollInterval); err != nil && !IsNotFound(err) {
		return false, errors.Wrapf(err, "failed waiting for deletion of resource group %s", name)
	}
	log.Info("deleted resource group")
	return true, nil
}

// IsNotFound reports whether err is a 404 from the management API.
func IsNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound || respErr.ErrorCode == "ResourceGroupNotFound"
	}
	return false
}
