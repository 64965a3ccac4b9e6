package dcs

import (
	"testing"
)

func TestConfFromConfigRequiresConfig(t *testing.T) {
	if _, err := ConfFromConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewRuntime(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfMissingFile(t *testing.T) {
	if _, err := Conf("/definitely/not/here.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestFlowAccumulatesOptions(t *testing.T) {
	f, err := ConfFromConfig(&Config{})
	if err != nil {
		t.Fatalf("conf: %v", err)
	}

	f.Options(WithJournal(nil), nil, WithObservability(nil))
	if len(f.opts) != 2 {
		t.Fatalf("expected nil options to be skipped, got %d", len(f.opts))
	}
	if f.Config() == nil {
		t.Fatal("Config accessor returned nil")
	}
}
