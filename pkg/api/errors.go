package api

import (
	"context"
	"errors"
	"net/http"

	fabric_errs "github.com/klothoplatform/fabric/pkg/fabric/errors"
	"github.com/klothoplatform/fabric/pkg/logging"
	"go.uber.org/zap"
)

// requestError is a malformed request, as opposed to a well-formed graph that fails validation.
type requestError struct {
	Err error
}

func (e *requestError) Error() string {
	return e.Err.Error()
}

func (e *requestError) Unwrap() error {
	return e.Err
}

func (e *requestError) ErrorCode() fabric_errs.ErrorCode {
	return fabric_errs.ValidationCode
}

func (e *requestError) ToJSONMap() map[string]any {
	return map[string]any{}
}

// statusOf maps an error to the HTTP status of its response. A classified error wins over the
// context error it may wrap: a stack that stayed busy until the deadline is still a conflict.
func statusOf(err error) int {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest
	}
	if fe, ok := fabric_errs.AsFabricError(err); ok {
		switch fe.ErrorCode() {
		case fabric_errs.ValidationCode:
			return http.StatusUnprocessableEntity
		case fabric_errs.UnsupportedKindCode:
			return http.StatusBadRequest
		case fabric_errs.StackBusyCode, fabric_errs.PartialDestroyCode:
			return http.StatusConflict
		case fabric_errs.ProvisioningQuotaCode,
			fabric_errs.ProvisioningNameCode,
			fabric_errs.ProvisioningRegionCode,
			fabric_errs.ProvisioningFailedCode:
			return http.StatusUnprocessableEntity
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	log := logging.GetLogger(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, r, status, fabric_errs.ToJSON(err))
}
