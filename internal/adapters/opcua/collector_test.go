package opcua

import (
	"testing"
	"time"

	"github.com/gopcua/opcua/ua"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{
		Endpoint: "opc.tcp://localhost:4840",
		Nodes: []NodeConfig{
			{NodeID: "ns=2;s=Oven1.Temperature", OvenID: "Oven1"},
		},
	}
	cfg.ApplyDefaults()

	if cfg.SecurityMode != "None" || cfg.SecurityPolicy != "None" {
		t.Fatalf("unexpected security defaults: %s/%s", cfg.SecurityMode, cfg.SecurityPolicy)
	}
	if cfg.PublishInterval != time.Second {
		t.Fatalf("publish interval default = %s", cfg.PublishInterval)
	}
	if cfg.Nodes[0].Channel != "temperature" {
		t.Fatalf("channel default = %q, want temperature", cfg.Nodes[0].Channel)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing endpoint", Config{Nodes: []NodeConfig{{NodeID: "n", OvenID: "Oven1"}}}},
		{"no nodes", Config{Endpoint: "opc.tcp://localhost:4840"}},
		{"node without oven", Config{
			Endpoint: "opc.tcp://localhost:4840",
			Nodes:    []NodeConfig{{NodeID: "n"}},
		}},
		{"unknown channel", Config{
			Endpoint: "opc.tcp://localhost:4840",
			Nodes:    []NodeConfig{{NodeID: "n", OvenID: "Oven1", Channel: "humidity"}},
		}},
		{"board channel without board id", Config{
			Endpoint: "opc.tcp://localhost:4840",
			Nodes:    []NodeConfig{{NodeID: "n", OvenID: "Oven1", Channel: "p1"}},
		}},
	}
	for _, c := range cases {
		if err := c.cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}

	ok := Config{
		Endpoint: "opc.tcp://localhost:4840",
		Nodes: []NodeConfig{
			{NodeID: "n1", OvenID: "Oven1", Channel: "temperature"},
			{NodeID: "n2", OvenID: "Oven1", BoardID: "board-1", Channel: "p1"},
		},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestNodeRawSampleKinds(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	oven := NodeConfig{NodeID: "n1", OvenID: "Oven1", Channel: "temperature"}
	got := oven.rawSample(ts, 210.5)
	if got.Kind != domain.KindOven || got.BoardID != "" {
		t.Fatalf("temperature node: kind=%s boardId=%q", got.Kind, got.BoardID)
	}
	if got.Values[domain.ChannelTemperature] != 210.5 {
		t.Fatalf("temperature value = %v", got.Values)
	}

	board := NodeConfig{NodeID: "n2", OvenID: "Oven1", BoardID: "board-1", Channel: "vx"}
	got = board.rawSample(ts, 0.42)
	if got.Kind != domain.KindBoard || got.BoardID != "board-1" {
		t.Fatalf("board node: kind=%s boardId=%q", got.Kind, got.BoardID)
	}
	if got.Values[domain.ChannelVx] != 0.42 {
		t.Fatalf("board value = %v", got.Values)
	}
	if got.Timestamp != "2024-05-01T12:00:00Z" {
		t.Fatalf("timestamp = %q", got.Timestamp)
	}
}

func TestVariantToFloat(t *testing.T) {
	cases := []struct {
		value any
		want  float64
		ok    bool
	}{
		{float64(21.5), 21.5, true},
		{float32(2), 2, true},
		{int32(-7), -7, true},
		{uint16(9), 9, true},
		{"not a number", 0, false},
	}
	for _, c := range cases {
		v, err := ua.NewVariant(c.value)
		if err != nil {
			if c.ok {
				t.Fatalf("variant %v: %v", c.value, err)
			}
			continue
		}
		got, ok := variantToFloat(v)
		if ok != c.ok || got != c.want {
			t.Errorf("variantToFloat(%v) = (%v, %v), want (%v, %v)", c.value, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeSecurityMode(t *testing.T) {
	if got := normalizeSecurityMode("sign"); got != "Sign" {
		t.Fatalf("sign = %q", got)
	}
	if got := normalizeSecurityMode("SignAndEncrypt"); got != "SignAndEncrypt" {
		t.Fatalf("SignAndEncrypt = %q", got)
	}
	if got := normalizeSecurityMode("anything else"); got != "None" {
		t.Fatalf("fallback = %q", got)
	}
}
