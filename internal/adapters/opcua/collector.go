// Package opcua polls PLC-exposed oven tags and feeds them into the same
// ingestion path as the websocket transport. It is an optional source for
// ovens that are wired to an OPC UA server instead of running a transmitter
// of their own.
package opcua

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/M-Kouli/Data-Collection-System/internal/domain"
	"github.com/M-Kouli/Data-Collection-System/internal/ports"
)

// Config captures the runtime details required to open an OPC UA session.
type Config struct {
	Endpoint         string        `yaml:"endpoint"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	SecurityMode     string        `yaml:"security_mode"`
	SecurityPolicy   string        `yaml:"security_policy"`
	ApplicationName  string        `yaml:"application_name"`
	PublishInterval  time.Duration `yaml:"publish_interval"`
	SamplingInterval time.Duration `yaml:"sampling_interval"`
	Nodes            []NodeConfig  `yaml:"nodes"`
}

// NodeConfig maps one monitored tag onto an oven or board channel. The
// temperature channel produces oven-level records; every other channel is
// board-level and needs a board_id to attribute the value to.
type NodeConfig struct {
	NodeID  string `yaml:"node_id"`
	OvenID  string `yaml:"oven_id"`
	BoardID string `yaml:"board_id"`
	Channel string `yaml:"channel"`
}

// ApplyDefaults fills the optional session settings.
func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "Data Collection System"
	}
	if c.PublishInterval <= 0 {
		c.PublishInterval = time.Second
	}
	if c.SamplingInterval < 0 {
		c.SamplingInterval = 0
	}
	for i := range c.Nodes {
		if c.Nodes[i].Channel == "" {
			c.Nodes[i].Channel = string(domain.ChannelTemperature)
		}
	}
}

// Validate checks the required session settings.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if len(c.Nodes) == 0 {
		return errors.New("at least one node must be configured")
	}
	for _, n := range c.Nodes {
		if n.OvenID == "" {
			return fmt.Errorf("node %q: oven_id is required", n.NodeID)
		}
		ch := domain.Channel(n.Channel)
		if ch == domain.ChannelTemperature {
			continue
		}
		if !isBoardChannel(ch) {
			return fmt.Errorf("node %q: unknown channel %q", n.NodeID, n.Channel)
		}
		if n.BoardID == "" {
			return fmt.Errorf("node %q: board_id is required for channel %q", n.NodeID, n.Channel)
		}
	}
	return nil
}

func isBoardChannel(ch domain.Channel) bool {
	for _, c := range domain.BoardChannels() {
		if c == ch {
			return true
		}
	}
	return false
}

// rawSample shapes one monitored value as the record kind its channel
// belongs to: temperature as an oven record, board channels as board
// records carrying the node's board id.
func (n NodeConfig) rawSample(ts time.Time, value float64) domain.RawSample {
	ch := domain.Channel(n.Channel)
	kind := domain.KindBoard
	boardID := n.BoardID
	if ch == domain.ChannelTemperature {
		kind = domain.KindOven
		boardID = ""
	}
	return domain.RawSample{
		OvenID:    n.OvenID,
		Kind:      kind,
		BoardID:   boardID,
		Timestamp: domain.FormatTimestamp(ts),
		Values:    map[domain.Channel]float64{ch: value},
	}
}

// Collector subscribes to the configured nodes and emits raw samples with
// server-side timestamps.
type Collector struct {
	cfg Config
	log *slog.Logger

	mu        sync.Mutex
	client    *opcua.Client
	sub       *opcua.Subscription
	cancel    context.CancelFunc
	handleMap map[uint32]NodeConfig
	started   bool
	wg        sync.WaitGroup
}

// NewCollector validates cfg and returns an unstarted collector.
func NewCollector(cfg Config, log *slog.Logger) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Collector{cfg: cfg, log: log}, nil
}

// Start opens the session and begins emitting samples on out.
func (c *Collector) Start(out chan<- domain.RawSample) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("opcua collector already started")
	}
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())

	client, err := opcua.NewClient(c.cfg.Endpoint, c.clientOptions()...)
	if err != nil {
		cancel()
		return fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		cancel()
		return fmt.Errorf("opcua connect: %w", err)
	}

	notifyCh := make(chan *opcua.PublishNotificationData, len(c.cfg.Nodes)*4)
	sub, err := client.Subscribe(ctx, &opcua.SubscriptionParameters{
		Interval: c.cfg.PublishInterval,
	}, notifyCh)
	if err != nil {
		cancel()
		_ = client.Close(ctx)
		return fmt.Errorf("opcua subscribe: %w", err)
	}

	handleMap := make(map[uint32]NodeConfig, len(c.cfg.Nodes))
	for i, node := range c.cfg.Nodes {
		nodeID, err := ua.ParseNodeID(node.NodeID)
		if err != nil {
			c.teardown(ctx, cancel, sub, client)
			return fmt.Errorf("parse node id %q: %w", node.NodeID, err)
		}
		handle := uint32(i + 1)
		req := opcua.NewMonitoredItemCreateRequestWithDefaults(nodeID, ua.AttributeIDValue, handle)
		if c.cfg.SamplingInterval > 0 {
			req.RequestedParameters.SamplingInterval = float64(c.cfg.SamplingInterval / time.Millisecond)
		}
		res, err := sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
		if err != nil {
			c.teardown(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q: %w", node.NodeID, err)
		}
		if len(res.Results) == 0 || res.Results[0].StatusCode != ua.StatusOK {
			c.teardown(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q rejected", node.NodeID)
		}
		handleMap[handle] = node
	}

	c.mu.Lock()
	c.client = client
	c.sub = sub
	c.cancel = cancel
	c.handleMap = handleMap
	c.started = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.consume(ctx, notifyCh, out)
	return nil
}

// Stop cancels the subscription and closes the session.
func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	cancel, sub, client := c.cancel, c.sub, c.client
	c.started = false
	c.cancel, c.sub, c.client = nil, nil, nil
	c.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()

	var err error
	if sub != nil {
		if e := sub.Cancel(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}
	if client != nil {
		if e := client.Close(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}

	c.wg.Wait()
	return err
}

func (c *Collector) consume(ctx context.Context, ch <-chan *opcua.PublishNotificationData, out chan<- domain.RawSample) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-ch:
			if notif == nil {
				continue
			}
			if notif.Error != nil {
				c.log.Error("opcua notification error", slog.Any("error", notif.Error))
				continue
			}
			c.emit(ctx, notif.Value, out)
		}
	}
}

func (c *Collector) emit(ctx context.Context, val any, out chan<- domain.RawSample) {
	data, ok := val.(*ua.DataChangeNotification)
	if !ok {
		return
	}

	for _, item := range data.MonitoredItems {
		node, ok := c.handleMap[item.ClientHandle]
		if !ok {
			continue
		}
		fv, ok := variantToFloat(item.Value.Value)
		if !ok {
			c.log.Warn("opcua value skipped: unsupported type",
				slog.String("node", node.NodeID))
			continue
		}

		ts := item.Value.ServerTimestamp
		if ts.IsZero() {
			ts = item.Value.SourceTimestamp
		}
		if ts.IsZero() {
			ts = time.Now()
		}

		sample := node.rawSample(ts, fv)

		select {
		case <-ctx.Done():
			return
		case out <- sample:
		}
	}
}

func (c *Collector) clientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(c.cfg.SecurityMode)),
		opcua.SecurityPolicy(c.cfg.SecurityPolicy),
		opcua.ApplicationName(c.cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}
	if c.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(c.cfg.Username, c.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func (c *Collector) teardown(ctx context.Context, cancel context.CancelFunc, sub *opcua.Subscription, client *opcua.Client) {
	cancel()
	if sub != nil {
		_ = sub.Cancel(ctx)
	}
	if client != nil {
		_ = client.Close(ctx)
	}
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

var _ ports.Collector = (*Collector)(nil)
