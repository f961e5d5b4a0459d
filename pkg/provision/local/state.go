package local

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type (
	// stackRecord is the persisted state of one stack.
	stackRecord struct {
		Project   string           `yaml:"project"`
		Env       string           `yaml:"env"`
		Location  string           `yaml:"location,omitempty"`
		Updated   time.Time        `yaml:"updated"`
		Resources []resourceRecord `yaml:"resources"`
	}

	// resourceRecord holds the resolved inputs of a resource. Secret inputs are stored as
	// fingerprints so changes are detected without persisting the secret.
	resourceRecord struct {
		URN    string         `yaml:"urn"`
		Type   string         `yaml:"type"`
		Name   string         `yaml:"name"`
		ID     string         `yaml:"id"`
		Inputs map[string]any `yaml:"inputs,omitempty"`
	}
)

func (e *Engine) recordPath(stack provision.Stack) string {
	return filepath.Join(e.dir, stack.Project, stack.Env+".yaml")
}

// load returns the stack's record, or provision.ErrStackNotFound.
func (e *Engine) load(stack provision.Stack) (*stackRecord, error) {
	content, err := afero.ReadFile(e.fs, e.recordPath(stack))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", provision.ErrStackNotFound, stack)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read state of %s: %w", stack, err)
	}
	var rec stackRecord
	if err := yaml.Unmarshal(content, &rec); err != nil {
		return nil, fmt.Errorf("could not parse state of %s: %w", stack, err)
	}
	return &rec, nil
}

func (e *Engine) save(stack provision.Stack, rec *stackRecord) error {
	path := e.recordPath(stack)
	if err := e.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	content, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	return afero.WriteFile(e.fs, path, content, 0644)
}

func (rec *stackRecord) byURN() map[string]resourceRecord {
	m := make(map[string]resourceRecord, len(rec.Resources))
	for _, r := range rec.Resources {
		m[r.URN] = r
	}
	return m
}
