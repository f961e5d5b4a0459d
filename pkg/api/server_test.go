package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klothoplatform/fabric/pkg/deployment"
	"github.com/klothoplatform/fabric/pkg/fabric"
	fabric_errs "github.com/klothoplatform/fabric/pkg/fabric/errors"
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

const scenario = `{
	"ir": {
		"project": "p",
		"env": "d",
		"location": "eastus",
		"nodes": [
			{"id": "s1", "kind": "object-storage"},
			{"id": "q1", "kind": "azure.servicebus"}
		],
		"edges": [{"from_": "s1", "to_": "q1", "intent": "notify"}]
	}
}`

func localDeployer(t *testing.T) *deployment.Engine {
	registry := fabric.DefaultRegistry()
	validator, err := validation.NewValidator(validation.DefaultPolicy(), registry)
	require.NoError(t, err)
	return deployment.NewEngine(
		deployment.Config{},
		local.NewEngine(afero.NewMemMapFs(), "/state"),
		validator,
		fabric.NewCompiler(registry, fabric.DefaultMatrix()),
	)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestServer_Lifecycle(t *testing.T) {
	assert := assert.New(t)
	h := NewServer(Config{}, localDeployer(t)).Handler()

	rec, body := do(t, h, http.MethodPost, "/validate", scenario)
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal(true, body["valid"])

	rec, body = do(t, h, http.MethodPost, "/preview", scenario)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(true, body["preview"])
	assert.Equal("p-d", body["stack"])
	assert.Contains(body["changeSummary"], "create")

	rec, body = do(t, h, http.MethodPost, "/up", scenario)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(false, body["preview"])
	outputs, _ := body["outputs"].(map[string]any)
	assert.Equal("rg-p-d", outputs["resourceGroupName"])
	assert.Contains(outputs, "servicebus-q1-queueName")
	summary, _ := body["summary"].(map[string]any)
	assert.Contains(summary, "duration_sec")

	rec, body = do(t, h, http.MethodPost, "/destroy", `{"project": "p", "env": "d"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(true, body["destroyed"])
	assert.Equal("stack", body["method"])

	rec, body = do(t, h, http.MethodPost, "/destroy", `{"project": "p", "env": "d"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(false, body["destroyed"])
	assert.Equal("none", body["method"])
}

func TestServer_InvalidGraph(t *testing.T) {
	h := NewServer(Config{}, localDeployer(t)).Handler()
	invalid := `{"ir": {"project": "p", "env": "d", "nodes": [{"id": "x", "kind": "mainframe"}]}}`

	rec, body := do(t, h, http.MethodPost, "/preview", invalid)
	assert.Equal(t, http.StatusOK, rec.Code, "preview reports validation failures in its result")
	validationReport, _ := body["validation"].(map[string]any)
	assert.Equal(t, false, validationReport["valid"])

	rec, body = do(t, h, http.MethodPost, "/up", invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation", body["error"])
	assert.Contains(t, body, "validation")
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name   string
		lookup error
		want   bool
	}{
		{name: "pulumi installed", want: true},
		{name: "pulumi missing", lookup: errors.New("not found"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{
				DefaultLocation: "westeurope",
				Engine:          "pulumi",
				Backend:         "file:///state/pulumi/state",
			}, nil)
			s.lookPath = func(string) (string, error) { return "/usr/bin/pulumi", tt.lookup }

			rec, body := do(t, s.Handler(), http.MethodGet, "/health", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, map[string]any{
				"status":          "ok",
				"locationDefault": "westeurope",
				"pulumiOnPath":    tt.want,
				"backend":         "file:///state/pulumi/state",
				"engine":          "pulumi",
			}, body)
		})
	}
}

func TestServer_Kinds(t *testing.T) {
	h := NewServer(Config{}, localDeployer(t)).Handler()
	rec, body := do(t, h, http.MethodGet, "/kinds", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	kinds, _ := body["kinds"].([]any)
	assert.Len(t, kinds, len(fabric.AllKinds))
}

func TestServer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "unsupported kind",
			err:      &fabric.UnsupportedKindError{Kind: "mainframe"},
			wantCode: http.StatusBadRequest,
			wantErr:  "unsupported_kind",
		},
		{
			name:     "quota",
			err:      &deployment.ProvisioningError{Class: deployment.ClassQuota, Op: "up", Stack: "p-d", Err: errors.New("QuotaExceeded")},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "provisioning_quota",
		},
		{
			name:     "busy",
			err:      &deployment.StackBusyError{Stack: "p-d", Err: context.DeadlineExceeded},
			wantCode: http.StatusConflict,
			wantErr:  "stack_busy",
		},
		{
			name:     "busy until cancelled",
			err:      fmt.Errorf("up: %w", &deployment.StackBusyError{Stack: "p-d", Err: context.Canceled}),
			wantCode: http.StatusConflict,
			wantErr:  "stack_busy",
		},
		{
			name:     "partial destroy",
			err:      &deployment.PartialDestroyError{Stack: "p-d", Err: errors.New("locked")},
			wantCode: http.StatusConflict,
			wantErr:  "partial_destroy",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: http.StatusServiceUnavailable,
			wantErr:  "internal",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("up: %w", context.DeadlineExceeded),
			wantCode: http.StatusServiceUnavailable,
			wantErr:  "internal",
		},
		{
			name:     "unknown",
			err:      errors.New("disk full"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			deployer := NewMockDeployer(ctrl)
			deployer.EXPECT().Up(gomock.Any(), gomock.Any(), gomock.Nil()).Return(nil, tt.err)

			rec, body := do(t, NewServer(Config{}, deployer).Handler(), http.MethodPost, "/up", scenario)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, body["error"])
			assert.Equal(t, tt.err.Error(), body["message"])
		})
	}
}

func TestServer_BadRequests(t *testing.T) {
	tests := []struct {
		name, path, body, wantMessage string
	}{
		{name: "malformed json", path: "/up", body: `{"ir": `, wantMessage: "invalid request body"},
		{name: "missing ir", path: "/preview", body: `{}`, wantMessage: "ir is required"},
		{name: "missing env", path: "/destroy", body: `{"project": "p"}`, wantMessage: "project and env are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deployer := NewMockDeployer(gomock.NewController(t))
			rec, body := do(t, NewServer(Config{}, deployer).Handler(), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(fabric_errs.ValidationCode), body["error"])
			assert.Contains(t, body["message"], tt.wantMessage)
		})
	}
}

func TestServer_Credentials(t *testing.T) {
	creds := &provision.Credentials{ClientID: "c", ClientSecret: "s", SubscriptionID: "sub", TenantID: "t"}
	ctrl := gomock.NewController(t)
	deployer := NewMockDeployer(ctrl)
	deployer.EXPECT().Destroy(gomock.Any(), "p", "d", creds).Return(&deployment.DestroyResult{Stack: "p-d"}, nil)
	deployer.EXPECT().Destroy(gomock.Any(), "p", "d", gomock.Nil()).Return(&deployment.DestroyResult{Stack: "p-d"}, nil)
	h := NewServer(Config{}, deployer).Handler()

	rec, _ := do(t, h, http.MethodPost, "/destroy",
		`{"project": "p", "env": "d", "creds": {"clientId": "c", "clientSecret": "s", "subscriptionId": "sub", "tenantId": "t"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/destroy", `{"project": "p", "env": "d", "creds": {"clientId": "c"}}`)
	assert.Equal(t, http.StatusOK, rec.Code, "incomplete credentials are ignored")
}

func TestServer_CORS(t *testing.T) {
	h := NewServer(Config{CORSOrigins: []string{"https://app.example.com"}}, nil).Handler()

	tests := []struct {
		name, origin, want string
	}{
		{name: "allowed", origin: "https://app.example.com", want: "https://app.example.com"},
		{name: "other", origin: "https://evil.example.com", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/up", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.want != "" {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
			}
		})
	}
}

func TestServer_RequestID(t *testing.T) {
	s := NewServer(Config{}, nil)
	s.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(requestIDHeader))

	rec, _ = do(t, h, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(Config{}, nil, WithMetrics(metrics.New(reg), reg))
	s.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	h := s.Handler()

	do(t, h, http.MethodGet, "/health", "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fabric_http_requests_total{code="200",route="/health"} 1`)
}
