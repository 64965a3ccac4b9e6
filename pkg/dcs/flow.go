package dcs

import (
	"context"
	"fmt"
)

// Flow is a convenience builder: Conf → Options → Run, without touching the
// underlying wiring.
type Flow struct {
	cfg  *Config
	opts []Option
}

// Conf loads YAML from disk and returns a Flow builder.
func Conf(path string) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &Flow{cfg: cfg}, nil
}

// Config returns the underlying configuration so callers can tweak it
// before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends runtime options to the builder.
func (f *Flow) Options(opts ...Option) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
	return f
}

// Build constructs the Runtime ready to run.
func (f *Flow) Build() (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	return NewRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for Build + runtime.Run.
func (f *Flow) Run(ctx context.Context) error {
	rt, err := f.Build()
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}
