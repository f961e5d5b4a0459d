package deployment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klothoplatform/fabric/pkg/fabric"
	fabric_errs "github.com/klothoplatform/fabric/pkg/fabric/errors"
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/metrics"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/provision/local"
	"github.com/klothoplatform/fabric/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testCreds = &provision.Credentials{
	ClientID:       "client",
	ClientSecret:   "secret",
	SubscriptionID: "sub",
	TenantID:       "00000000-0000-0000-0000-000000000001",
}

func scenario() *ir.Graph {
	return &ir.Graph{
		Project:  "p",
		Env:      "d",
		Location: "eastus",
		Nodes: []ir.Node{
			{ID: "s1", Kind: "object-storage"},
			{ID: "q1", Kind: "message-queue"},
		},
		Edges: []ir.Edge{{From: "s1", To: "q1", Intent: "notify"}},
	}
}

func newEngine(t *testing.T, provisioner provision.Engine, opts ...Option) *Engine {
	registry := fabric.DefaultRegistry()
	validator, err := validation.NewValidator(validation.DefaultPolicy(), registry)
	require.NoError(t, err)
	return NewEngine(Config{}, provisioner, validator, fabric.NewCompiler(registry, fabric.DefaultMatrix()), opts...)
}

func TestEngine_Lifecycle(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	e := newEngine(t, local.NewEngine(afero.NewMemMapFs(), "/state"), WithMetrics(metrics.New(prometheus.NewRegistry())))
	assert.Equal(StatusNone, e.Status("p", "d"))

	preview, err := e.Preview(ctx, scenario(), nil)
	require.NoError(err)
	assert.True(preview.Preview)
	assert.True(preview.Validation.Valid)
	assert.Empty(preview.Diagnostics)
	assert.Equal([]provision.Op{provision.OpCreate}, ops(preview.ChangeSummary))
	assert.Equal(StatusNone, e.Status("p", "d"), "previews are not persisted")

	up, err := e.Up(ctx, scenario(), testCreds)
	require.NoError(err)
	assert.False(up.Preview)
	assert.Equal("p-d", up.Stack)
	assert.Equal("rg-p-d", up.Outputs[fabric.ResourceGroupOutput])
	assert.Contains(up.Outputs, "storage-s1-conn")
	assert.Contains(up.Outputs, "servicebus-q1-conn")
	assert.IsType("", up.Outputs["storage-s1-conn"], "secrets are unwrapped to plain data")
	assert.Equal(preview.ChangeSummary, up.Summary.Resources)
	assert.Equal(StatusApplied, e.Status("p", "d"))

	again, err := e.Up(ctx, scenario(), testCreds)
	require.NoError(err)
	assert.False(again.Summary.Resources.HasChanges(), "unchanged graph converges as a no-op")
	assert.Equal(up.Outputs, again.Outputs)

	destroyed, err := e.Destroy(ctx, "p", "d", nil)
	require.NoError(err)
	assert.True(destroyed.Destroyed)
	assert.Equal(MethodStack, destroyed.Method)
	assert.Equal(preview.ChangeSummary.Total(), destroyed.Summary[provision.OpDelete])
	assert.Equal(StatusDestroyed, e.Status("p", "d"))

	gone, err := e.Destroy(ctx, "p", "d", nil)
	require.NoError(err)
	assert.False(gone.Destroyed)
	assert.Equal(MethodNone, gone.Method)
	assert.Contains(gone.Message, "not found and no credentials were provided")
}

func ops(c provision.ChangeSummary) []provision.Op {
	var out []provision.Op
	for op, n := range c {
		if n > 0 {
			out = append(out, op)
		}
	}
	return out
}

func TestEngine_InvalidGraph(t *testing.T) {
	ctrl := gomock.NewController(t)
	provisioner := NewMockEngine(ctrl)
	e := newEngine(t, provisioner)

	g := scenario()
	g.Nodes = append(g.Nodes, ir.Node{ID: "x", Kind: "not-a-real-kind"})

	preview, err := e.Preview(context.Background(), g, nil)
	require.NoError(t, err)
	assert.False(t, preview.Validation.Valid)
	assert.Nil(t, preview.ChangeSummary)
	if assert.Len(t, preview.Validation.Errors, 1) {
		assert.Contains(t, preview.Validation.Errors[0], "Node x: Unsupported kind: not-a-real-kind")
	}

	_, err = e.Up(context.Background(), g, nil)
	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, verr.Report.Valid)
}

func TestEngine_UpClassifiesFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode fabric_errs.ErrorCode
		wantErr  string
	}{
		{
			name:     "quota",
			err:      errors.New("MaxNumberOfRegionalEnvironmentsInSubExceeded: The subscription cannot have more than 1 environments in eastus"),
			wantCode: fabric_errs.ProvisioningQuotaCode,
		},
		{
			name:     "name taken",
			err:      errors.New("StorageAccountAlreadyTaken: The storage account named s1 is already taken."),
			wantCode: fabric_errs.ProvisioningNameCode,
		},
		{
			name:     "region policy",
			err:      errors.New("RequestDisallowedByPolicy: Resource 'st-s1' was disallowed by policy."),
			wantCode: fabric_errs.ProvisioningRegionCode,
		},
		{
			name:     "unclassified",
			err:      errors.New("InternalServerError: try again later"),
			wantCode: fabric_errs.ProvisioningFailedCode,
			wantErr:  "up of stack p-d failed: InternalServerError: try again later",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provisioner := NewMockEngine(ctrl)
			provisioner.EXPECT().Converge(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			e := newEngine(t, provisioner)
			_, err := e.Up(context.Background(), scenario(), nil)

			var perr *ProvisioningError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantCode, perr.ErrorCode())
			assert.NotEmpty(t, perr.Guidance())
			assert.ErrorIs(t, err, tt.err)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
			}
			assert.Equal(t, StatusNone, e.Status("p", "d"))
		})
	}
}

func TestEngine_UpPassesStack(t *testing.T) {
	ctrl := gomock.NewController(t)
	provisioner := NewMockEngine(ctrl)
	provisioner.EXPECT().Converge(gomock.Any(), provision.Stack{
		Project:     "p",
		Env:         "d",
		Location:    "eastus",
		Credentials: testCreds,
	}, gomock.Any()).DoAndReturn(func(_ context.Context, _ provision.Stack, plan *provision.Plan) (*provision.ConvergeResult, error) {
		assert.Contains(t, plan.ExportKeys(), "storage-s1-accountName")
		return &provision.ConvergeResult{
			Outputs: map[string]provision.Value{
				"storage-s1-conn": provision.SecretValue{Inner: provision.Deferred{Resolve: func() (provision.Value, error) {
					return provision.Mapping{"conn": provision.Scalar{V: "AccountKey=abc"}}, nil
				}}},
			},
			Changes:  provision.ChangeSummary{provision.OpCreate: 6},
			Duration: 1500 * time.Millisecond,
		}, nil
	})

	e := newEngine(t, provisioner)
	res, err := e.Up(context.Background(), scenario(), testCreds)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"storage-s1-conn": map[string]any{"conn": "AccountKey=abc"}}, res.Outputs)
	assert.Equal(t, Summary{Resources: provision.ChangeSummary{provision.OpCreate: 6}, DurationSec: 1.5}, res.Summary)
}

func TestEngine_DefaultCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	provisioner := NewMockEngine(ctrl)
	provisioner.EXPECT().Destroy(gomock.Any(), provision.Stack{Project: "p", Env: "d", Credentials: testCreds}).
		Return(provision.ChangeSummary{provision.OpDelete: 1}, nil)
	provisioner.EXPECT().RemoveStack(gomock.Any(), gomock.Any()).Return(nil)

	registry := fabric.DefaultRegistry()
	validator, err := validation.NewValidator(validation.DefaultPolicy(), registry)
	require.NoError(t, err)
	e := NewEngine(Config{Credentials: testCreds}, provisioner, validator, fabric.NewCompiler(registry, fabric.DefaultMatrix()))

	res, err := e.Destroy(context.Background(), "p", "d", nil)
	require.NoError(t, err)
	assert.True(t, res.Destroyed)
}

func TestEngine_Destroy(t *testing.T) {
	engineErr := errors.New("resource st-s1 is locked")
	deleteErr := errors.New("AuthorizationFailed")

	tests := []struct {
		name    string
		creds   *provision.Credentials
		setup   func(p *MockEngine, d *MockGroupDeleter)
		want    *DestroyResult
		wantErr func(t *testing.T, err error)
		status  Status
	}{
		{
			name: "stack",
			setup: func(p *MockEngine, d *MockGroupDeleter) {
				p.EXPECT().Destroy(gomock.Any(), gomock.Any()).Return(provision.ChangeSummary{provision.OpDelete: 4}, nil)
				p.EXPECT().RemoveStack(gomock.Any(), gomock.Any()).Return(nil)
			},
			want: &DestroyResult{
				Destroyed: true,
				Stack:     "p-d",
				Method:    MethodStack,
				Message:   "Stack p-d destroyed.",
				Summary:   provision.ChangeSummary{provision.OpDelete: 4},
			},
			status: StatusDestroyed,
		},
		{
			name: "record removal fails",
			setup: func(p *MockEngine, d *MockGroupDeleter) {
				p.EXPECT().Destroy(gomock.Any(), gomock.Any()).Return(provision.ChangeSummary{provision.OpDelete: 4}, nil)
				p.EXPECT().RemoveStack(gomock.Any(), gomock.Any()).Return(errors.New("permission denied"))
			},
			want: &DestroyResult{
				Destroyed: true,
				Stack:     "p-d",
				Method:    MethodStack,
				Message:   "Stack p-d destroyed, but its record could not be removed: permission denied",
				Summary:   provision.ChangeSummary{provision.OpDelete: 4},
			},
			status: StatusDestroyed,
		},
		{
			name: "no stack, no credentials",
			setup: func(p *MockEngine, d *MockGroupDeleter) {
				p.EXPECT().Destroy(gomock.Any(), gomock.Any()).Return(nil, provision.ErrStackNotFound)
			},
			want: &DestroyResult{
				Stack:   "p-d",
				Method:  MethodNone,
				Message: "Stack p-d was not found and no credentials were provided, so nothing was destroyed.",
			},
			status: StatusNone,
		},
		{
			name:  "no stack, credentials",
			creds: testCreds,
			setup: func(p *MockEngine, d *MockGroupDeleter) {
				p.EXPECT().Destroy(gomock.Any(), gomock.Any()).Return(nil, provision.ErrStackNotFound)
				d.EXPECT().DeleteGroup(gomock.Any(), *testCreds, "rg-p-d").Return(true, nil)
			},
			want: &DestroyResult{
				Destroyed: true,
				Stack:     "p-d",
				Method:    MethodResourceGroup,
				Message:   "Resource group rg-p-d was deleted directly (stack not found).",
			},
			status: StatusDestroyed,
		},
		{
			name:  "engine destroy fails, fallback succeeds",
			creds: testCreds,
			setup: func(p *MockEngine, d *MockGroupDeleter) {
				p.EXPECT().Destroy(gomock.Any(), gomock.Any()).Return(nil, engineErr)
				d.EXPECT().DeleteGroup(gomock.Any(), *testCreds, "rg-p-d").Return(true, nil)
				p.EXPECT().RemoveStack(gomock.Any(), gomock.Any()).Return(nil)
			},
			want: &DestroyResult{
				Destroyed: true,
				Stack:     "p-d",
				Method:    MethodResourceGroup,
				Message:   "Resource group rg-p-d was deleted directly (stack destroy failed).",
			},
			status: StatusDestroyed,
		},
		{
			name: "engine destroy fails, no credentials",
			setup: func(p *MockEngine, d *MockGroupDeleter) {
				p.EXPECT().Destroy(gomock.Any(), gomock.Any()).Return(nil, engineErr)
			},
			wantErr: func(t *testing.T, err error) {
				var perr *PartialDestroyError
				require.ErrorAs(t, err, &perr)
				assert.Nil(t, perr.Fallback)
				assert.ErrorIs(t, err, engineErr)
				assert.Contains(t, err.Error(), "resources may still exist")
				assert.Equal(t, fabric_errs.PartialDestroyCode, perr.ErrorCode())
			},
			status: StatusNone,
		},
		{
			name:  "engine destroy and fallback fail",
			creds: testCreds,
			setup: func(p *MockEngine, d *MockGroupDeleter) {
				p.EXPECT().Destroy(gomock.Any(), gomock.Any()).Return(nil, engineErr)
				d.EXPECT().DeleteGroup(gomock.Any(), gomock.Any(), "rg-p-d").Return(false, deleteErr)
			},
			wantErr: func(t *testing.T, err error) {
				var perr *PartialDestroyError
				require.ErrorAs(t, err, &perr)
				assert.ErrorIs(t, err, engineErr)
				assert.ErrorIs(t, err, deleteErr)
				assert.Equal(t, true, perr.ToJSONMap()["fallbackAttempted"])
			},
			status: StatusNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provisioner := NewMockEngine(ctrl)
			deleter := NewMockGroupDeleter(ctrl)
			tt.setup(provisioner, deleter)

			e := newEngine(t, provisioner, WithGroupDeleter(deleter))
			res, err := e.Destroy(context.Background(), "p", "d", tt.creds)
			if tt.wantErr != nil {
				tt.wantErr(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, res)
			}
			assert.Equal(t, tt.status, e.Status("p", "d"))
		})
	}
}

func TestEngine_DestroyWithoutDeleter(t *testing.T) {
	ctrl := gomock.NewController(t)
	provisioner := NewMockEngine(ctrl)
	provisioner.EXPECT().Destroy(gomock.Any(), gomock.Any()).Return(nil, provision.ErrStackNotFound)

	e := newEngine(t, provisioner)
	_, err := e.Destroy(context.Background(), "p", "d", testCreds)
	var perr *PartialDestroyError
	require.ErrorAs(t, err, &perr)
	assert.EqualError(t, perr.Fallback, "direct deletion is not configured")
}

func TestEngine_StackBusy(t *testing.T) {
	ctrl := gomock.NewController(t)
	e := newEngine(t, NewMockEngine(ctrl))

	release, err := e.acquire(context.Background(), provision.Stack{Project: "p", Env: "d"})
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.Destroy(ctx, "p", "d", nil)

	var busy *StackBusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, "p-d", busy.Stack)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, fabric_errs.StackBusyCode, busy.ErrorCode())
}

func TestEngine_StacksWithHyphenatedNames(t *testing.T) {
	e := newEngine(t, NewMockEngine(gomock.NewController(t)))
	first := provision.Stack{Project: "a-b", Env: "c"}
	second := provision.Stack{Project: "a", Env: "b-c"}
	require.Equal(t, first.Name(), second.Name())

	release, err := e.acquire(context.Background(), first)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	other, err := e.acquire(ctx, second)
	require.NoError(t, err, "stacks with the same joined name must not share a lock")
	other()

	require.NoError(t, e.transition(first, StatusApplied))
	assert.Equal(t, StatusApplied, e.Status("a-b", "c"))
	assert.Equal(t, StatusNone, e.Status("a", "b-c"))
}

func TestEngine_Kinds(t *testing.T) {
	e := newEngine(t, NewMockEngine(gomock.NewController(t)))
	kinds := e.Kinds()
	require.Len(t, kinds, len(fabric.AllKinds))
	for _, k := range kinds {
		assert.NotEmpty(t, k.Domain, k.Kind)
	}
}
