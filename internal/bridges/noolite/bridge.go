package noolite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Bridge drives the adapter and the MQTT bus from a single loop.
//
// Each iteration it:
//  1. polls the transport for complete frames
//  2. decodes, records and interprets them, publishing the resulting events
//  3. fires due scheduler entries
//  4. drains queued inbound commands and writes them to the adapter
//
// Only the loop goroutine touches the reassembler, the scheduler and the
// transport. MQTT callbacks just enqueue. Metrics are atomic.
type Bridge struct {
	cfg       Config
	topics    Topics
	mqtt      MQTTClient
	transport Transport
	clock     Clock
	recorder  Recorder  // optional
	telemetry Telemetry // optional

	reader    *Reassembler
	scheduler *Scheduler
	queue     chan inbound
	lastWrite time.Time

	stats bridgeStats

	// Shutdown coordination
	wg       sync.WaitGroup
	stopOnce sync.Once
	cancel   context.CancelFunc
	running  atomic.Bool

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the subset of the MQTT client the bridge needs.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Transport is the byte stream to the MTRF64 adapter.
// Read must return within a short timeout when no data is waiting.
type Transport interface {
	io.Reader
	io.Writer
}

// Recorder keeps a ledger of channels seen on the air.
// It is optional; if nil, nothing is recorded.
type Recorder interface {
	RecordFrame(mode Mode, ch uint8, cmd Command)
}

// Telemetry receives numeric readings for time-series storage.
// It is optional; if nil, readings are only published to MQTT.
type Telemetry interface {
	WriteChannelReading(kind string, ch uint8, mode string, value float64)
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// Config holds prefix, QoS, strictness and pacing.
	Config Config

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Transport is the serial link to the adapter.
	Transport Transport

	// Logger is optional structured logger.
	Logger Logger

	// Clock is optional; defaults to SystemClock.
	Clock Clock

	// Recorder is optional channel ledger.
	Recorder Recorder

	// Telemetry is optional time-series sink.
	Telemetry Telemetry
}

type inbound struct {
	topic   string
	payload []byte
}

type bridgeStats struct {
	framesRx        atomic.Uint64
	framesTx        atomic.Uint64
	framesDropped   atomic.Uint64
	checksumErrors  atomic.Uint64
	eventsPublished atomic.Uint64
	publishErrors   atomic.Uint64
	commandsDropped atomic.Uint64
	transportErrors atomic.Uint64
	pending         atomic.Int64
}

// NewBridge creates a new bridge instance.
// Call Start() or Run() to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}

	cfg := opts.Config.withDefaults()
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	return &Bridge{
		cfg:       cfg,
		topics:    NewTopics(cfg.Prefix),
		mqtt:      opts.MQTTClient,
		transport: opts.Transport,
		clock:     clock,
		recorder:  opts.Recorder,
		telemetry: opts.Telemetry,
		reader:    NewReassembler(opts.Transport, cfg.MaxFramesPerPoll),
		scheduler: NewScheduler(),
		queue:     make(chan inbound, cfg.QueueSize),
		logger:    opts.Logger,
	}, nil
}

// Topics returns the topic builders in use.
func (b *Bridge) Topics() Topics {
	return b.topics
}

// Start subscribes to command topics, announces the bridge online and runs
// the loop in a background goroutine until Stop is called or ctx ends.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.subscribe(); err != nil {
		return err
	}
	b.announceOnline()

	loopCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.loop(loopCtx)
	}()

	b.logInfo("bridge started", "prefix", b.topics.Prefix, "strict_checksum", b.cfg.StrictChecksum)
	return nil
}

// Run subscribes, announces and runs the loop on the calling goroutine.
// It returns when ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.subscribe(); err != nil {
		return err
	}
	b.announceOnline()
	b.loop(ctx)
	return nil
}

// Stop ends the loop and waits for it to exit.
// An in-flight write is allowed to finish. Safe to call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		b.wg.Wait()
		b.logInfo("bridge stopped", "pending_deferrals", b.scheduler.Len())
	})
}

func (b *Bridge) subscribe() error {
	for _, topic := range b.topics.CommandSubscriptions() {
		if err := b.mqtt.Subscribe(topic, b.cfg.QoS, b.enqueue); err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		b.logInfo("subscribed to commands", "topic", topic)
	}
	return nil
}

func (b *Bridge) announceOnline() {
	if err := b.mqtt.Publish(b.topics.LWT(), []byte(PayloadOnline), b.cfg.QoS, true); err != nil {
		b.logError("failed to publish online status", err)
	}
}

// enqueue is the MQTT handler. It runs on paho's goroutine and only hands
// the message to the loop.
func (b *Bridge) enqueue(topic string, payload []byte) {
	msg := inbound{topic: topic, payload: append([]byte(nil), payload...)}
	select {
	case b.queue <- msg:
	default:
		b.stats.commandsDropped.Add(1)
		b.logWarn("dropping inbound command", "topic", topic, "error", ErrQueueFull)
	}
}

func (b *Bridge) loop(ctx context.Context) {
	b.running.Store(true)
	defer b.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := b.step(ctx); err != nil && b.cfg.ErrorBackoff > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(b.cfg.ErrorBackoff):
			}
		}
	}
}

// step runs one loop iteration. The returned error is the transport error,
// if any; everything else is logged and absorbed.
func (b *Bridge) step(ctx context.Context) error {
	frames, pollErr := b.reader.Poll()
	for _, raw := range frames {
		b.handleFrame(raw)
	}
	if pollErr != nil {
		b.stats.transportErrors.Add(1)
		b.logError("adapter read failed", pollErr)
	}

	for _, e := range b.scheduler.Tick(b.clock.Now()) {
		b.logDebug("deferred event fired", "kind", e.Kind.String(), "channel", e.Channel, "value", e.Value)
		b.publishEvent(e)
	}
	b.stats.pending.Store(int64(b.scheduler.Len()))

	b.drainCommands(ctx)

	return pollErr
}

// handleFrame decodes and interprets one frame from the adapter.
func (b *Bridge) handleFrame(raw RawFrame) {
	f, err := Decode(raw[:])
	if err != nil && !b.acceptDespite(err, f) {
		b.stats.framesDropped.Add(1)
		b.logWarn("dropping malformed frame", "error", err)
		return
	}

	b.stats.framesRx.Add(1)
	b.logDebug("frame received",
		"mode", f.Mode.String(),
		"channel", f.Channel,
		"cmd", f.Cmd.String(),
		"res", f.Res,
	)

	if b.recorder != nil {
		b.recorder.RecordFrame(f.Mode, f.Channel, f.Cmd)
	}

	in := Interpret(f)
	for _, e := range in.Events {
		b.publishEvent(e)
	}
	b.scheduler.Apply(b.clock.Now(), in)
}

// acceptDespite reports whether a frame that failed to decode cleanly
// should still be interpreted. Only checksum mismatches qualify, and only
// when checksum checking is lenient.
func (b *Bridge) acceptDespite(err error, f Frame) bool {
	if !errors.Is(err, ErrChecksumMismatch) {
		return false
	}
	b.stats.checksumErrors.Add(1)
	if b.cfg.StrictChecksum {
		return false
	}
	b.logWarn("checksum mismatch, frame accepted", "frame", f.String(), "error", err)
	return true
}

// publishEvent publishes an event and forwards its reading to telemetry.
func (b *Bridge) publishEvent(e Event) {
	for _, m := range e.Messages(b.topics) {
		if err := b.mqtt.Publish(m.Topic, []byte(m.Payload), b.cfg.QoS, m.Retained); err != nil {
			b.stats.publishErrors.Add(1)
			b.logError("failed to publish "+m.Topic, err)
			continue
		}
		b.stats.eventsPublished.Add(1)
	}

	if b.telemetry != nil && e.Measured {
		b.telemetry.WriteChannelReading(e.Kind.String(), e.Channel, e.Mode.String(), e.Reading)
		if e.Kind == EventStateF {
			b.telemetry.WriteChannelReading("brightness", e.Channel, e.Mode.String(), float64(e.Brightness))
		}
	}
}

// drainCommands handles every queued inbound command without waiting for more.
func (b *Bridge) drainCommands(ctx context.Context) {
	for {
		select {
		case msg := <-b.queue:
			b.handleCommand(ctx, msg)
		default:
			return
		}
	}
}

func (b *Bridge) handleCommand(ctx context.Context, msg inbound) {
	cmd, err := b.topics.ParseInbound(msg.topic, msg.payload)
	if err != nil {
		b.logDebug("ignoring inbound message", "topic", msg.topic, "error", err)
		return
	}

	if err := b.Send(ctx, cmd); err != nil {
		b.logError("failed to send command", err)
		return
	}

	b.logInfo("command sent",
		"topic", msg.topic,
		"mode", cmd.Mode.String(),
		"ctr", cmd.Ctr.String(),
		"channel", cmd.Channel,
		"cmd", cmd.Cmd.String(),
	)
}

// Send encodes cmd and writes it to the adapter, waiting first if the
// previous write was less than SendSpacing ago.
//
// Send must only be called from the loop goroutine, or before Start.
func (b *Bridge) Send(ctx context.Context, cmd OutboundCommand) error {
	frame, err := Encode(cmd)
	if err != nil {
		return err
	}

	if err := b.waitSpacing(ctx); err != nil {
		return err
	}

	_, err = b.transport.Write(frame[:])
	b.lastWrite = b.clock.Now()
	if err != nil {
		b.stats.transportErrors.Add(1)
		return fmt.Errorf("%w: write: %w", ErrTransport, err)
	}

	b.stats.framesTx.Add(1)
	return nil
}

func (b *Bridge) waitSpacing(ctx context.Context) error {
	if b.cfg.SendSpacing <= 0 || b.lastWrite.IsZero() {
		return nil
	}
	wait := b.cfg.SendSpacing - b.clock.Now().Sub(b.lastWrite)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BridgeMetrics contains metrics data for the API metrics endpoint.
type BridgeMetrics struct {
	Running          bool   `json:"running"`
	MQTTConnected    bool   `json:"mqtt_connected"`
	FramesRx         uint64 `json:"frames_rx"`
	FramesTx         uint64 `json:"frames_tx"`
	FramesDropped    uint64 `json:"frames_dropped"`
	ChecksumErrors   uint64 `json:"checksum_errors"`
	EventsPublished  uint64 `json:"events_published"`
	PublishErrors    uint64 `json:"publish_errors"`
	CommandsDropped  uint64 `json:"commands_dropped"`
	TransportErrors  uint64 `json:"transport_errors"`
	PendingDeferrals int64  `json:"pending_deferrals"`
}

// GetMetrics returns current bridge metrics. Safe for concurrent use.
func (b *Bridge) GetMetrics() BridgeMetrics {
	return BridgeMetrics{
		Running:          b.running.Load(),
		MQTTConnected:    b.mqtt.IsConnected(),
		FramesRx:         b.stats.framesRx.Load(),
		FramesTx:         b.stats.framesTx.Load(),
		FramesDropped:    b.stats.framesDropped.Load(),
		ChecksumErrors:   b.stats.checksumErrors.Load(),
		EventsPublished:  b.stats.eventsPublished.Load(),
		PublishErrors:    b.stats.publishErrors.Load(),
		CommandsDropped:  b.stats.commandsDropped.Load(),
		TransportErrors:  b.stats.transportErrors.Load(),
		PendingDeferrals: b.stats.pending.Load(),
	}
}
