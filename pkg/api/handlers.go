package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"

	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/logging"
	"github.com/klothoplatform/fabric/pkg/provision"
	"go.uber.org/zap"
)

type (
	graphRequest struct {
		IR    *ir.Graph              `json:"ir"`
		Creds *provision.Credentials `json:"creds,omitempty"`
	}

	destroyRequest struct {
		Project string                 `json:"project"`
		Env     string                 `json:"env"`
		Creds   *provision.Credentials `json:"creds,omitempty"`
	}

	healthResponse struct {
		Status          string `json:"status"`
		LocationDefault string `json:"locationDefault"`
		PulumiOnPath    bool   `json:"pulumiOnPath"`
		Backend         string `json:"backend"`
		Engine          string `json:"engine"`
	}
)

var lookPath = exec.LookPath

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	_, err := s.lookPath("pulumi")
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:          "ok",
		LocationDefault: s.cfg.DefaultLocation,
		PulumiOnPath:    err == nil,
		Backend:         s.cfg.Backend,
		Engine:          s.cfg.Engine,
	})
}

func (s *Server) kinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"kinds": s.deployer.Kinds()})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGraph(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.deployer.Validate(req.IR))
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGraph(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deployer.Preview(r.Context(), req.IR, usable(req.Creds))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) up(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGraph(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deployer.Up(r.Context(), req.IR, usable(req.Creds))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) destroy(w http.ResponseWriter, r *http.Request) {
	var req destroyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Project == "" || req.Env == "" {
		writeError(w, r, &requestError{Err: errors.New("project and env are required")})
		return
	}
	res, err := s.deployer.Destroy(r.Context(), req.Project, req.Env, usable(req.Creds))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &requestError{Err: fmt.Errorf("invalid request body: %w", err)}
	}
	return nil
}

func decodeGraph(r *http.Request) (*graphRequest, error) {
	var req graphRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.IR == nil {
		return nil, &requestError{Err: errors.New("ir is required")}
	}
	return &req, nil
}

// usable drops incomplete request credentials so the configured defaults apply.
func usable(creds *provision.Credentials) *provision.Credentials {
	if !creds.Complete() {
		return nil
	}
	return creds
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.GetLogger(r.Context()).Warn("could not write response", zap.Error(err))
	}
}
