package display

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-display/internal/eve"
	"github.com/nerrad567/gray-logic-display/internal/node"
)

// Bridge operation constants.
const (
	// minTopicParts is the minimum number of parts in a valid MQTT topic.
	minTopicParts = 3
)

// Bridge exposes the local display registry on the Gray Logic MQTT bus.
// It handles:
//   - Receiving commands from Core via MQTT and driving the panels
//   - Answering register and tracker read requests
//   - Health reporting and graceful shutdown
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	bridgeID string
	mqtt     MQTTClient
	registry NodeRegistry
	health   *HealthReporter

	// Display name to node path mappings (built from config)
	displays  map[string]string
	displayMu sync.RWMutex

	// Shutdown coordination
	stopOnce sync.Once

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger is the structured logging interface used by the bridge.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// NodeRegistry is the device namespace the bridge drives.
// Satisfied by *node.Registry.
type NodeRegistry interface {
	// Open opens a handle on the device published at path.
	Open(path string) (*eve.Handle, error)

	// Device returns the device published at path.
	Device(path string) (*eve.Device, error)

	// Unlink removes the node at path.
	Unlink(path string) error
}

// Options holds configuration for creating a bridge.
type Options struct {
	// BridgeID identifies this bridge in health messages. Defaults to "display".
	BridgeID string

	// Version is the service version reported in health messages.
	Version string

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Registry is the device node namespace.
	Registry NodeRegistry

	// Displays maps display names to node paths (e.g. "panel-hall" -> "/dev/ft800").
	Displays map[string]string

	// HealthInterval is how often to publish health status. Zero uses the default.
	HealthInterval time.Duration

	// Logger is optional structured logger.
	Logger Logger
}

// NewBridge creates a new bridge instance.
// Call Start() to begin operation.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("node registry is required")
	}

	bridgeID := opts.BridgeID
	if bridgeID == "" {
		bridgeID = Protocol
	}

	b := &Bridge{
		bridgeID: bridgeID,
		mqtt:     opts.MQTTClient,
		registry: opts.Registry,
		displays: make(map[string]string, len(opts.Displays)),
		logger:   opts.Logger,
	}
	for name, path := range opts.Displays {
		b.displays[name] = path
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  bridgeID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Stats:     b.aggregateStats,
	})
	b.health.SetDisplayCount(len(b.displays))
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start begins bridge operation.
// This subscribes to MQTT topics and starts health reporting.
func (b *Bridge) Start() error {
	// Publish starting status
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	// Subscribe to command topics
	commandTopic := CommandSubscribeTopic()
	if err := b.mqtt.Subscribe(commandTopic, 1, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	// Subscribe to request topics
	requestTopic := RequestSubscribeTopic()
	if err := b.mqtt.Subscribe(requestTopic, 1, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to requests: %w", err)
	}
	b.logInfo("subscribed to requests", "topic", requestTopic)

	// Start health reporting
	b.health.Start()

	b.displayMu.RLock()
	displayCount := len(b.displays)
	b.displayMu.RUnlock()

	b.logInfo("bridge started",
		"bridge_id", b.bridgeID,
		"displays", displayCount)

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		// Stop health reporting (publishes "stopping" status)
		b.health.Stop()

		b.logInfo("bridge stopped")
	})
}

// PublishEvent publishes a panel lifecycle event to the bus.
// The service attaches the bridge to its event fan-out once the bridge is
// running, so open, close, unlink, and destroy events are visible to Core.
// Registration happens before the bridge starts and is journal-only.
func (b *Bridge) PublishEvent(name, event string) {
	payload, err := json.Marshal(map[string]any{
		"device_id": name,
		"event":     event,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := b.mqtt.Publish(EventTopic(name), payload, 1, false); err != nil {
		b.logError("failed to publish event", err)
	}
}

// aggregateStats sums bus statistics over all configured displays.
func (b *Bridge) aggregateStats() BridgeStatistics {
	b.displayMu.RLock()
	paths := make([]string, 0, len(b.displays))
	for _, path := range b.displays {
		paths = append(paths, path)
	}
	b.displayMu.RUnlock()

	var total BridgeStatistics
	for _, path := range paths {
		dev, err := b.registry.Device(path)
		if err != nil {
			continue
		}
		stats := dev.GetStats()
		total.BusReads += stats.BusReads
		total.BusWrites += stats.BusWrites
		total.BytesWritten += stats.BytesWritten
		total.Errors += stats.BusErrors
	}
	return total
}

// lookupPath resolves a display name to its node path.
func (b *Bridge) lookupPath(name string) (string, bool) {
	b.displayMu.RLock()
	defer b.displayMu.RUnlock()
	path, ok := b.displays[name]
	return path, ok
}

// handleMQTTMessage routes incoming MQTT messages to appropriate handlers.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	// Parse topic to determine message type
	parts := strings.Split(topic, "/")
	if len(parts) < minTopicParts {
		b.logError("invalid topic format", fmt.Errorf("topic: %s", topic))
		return
	}

	messageType := parts[1] // command, request, etc.

	switch messageType {
	case "command":
		b.handleCommand(payload)
	case "request":
		b.handleRequest(payload)
	default:
		b.logError("unknown message type", fmt.Errorf("type: %s", messageType))
	}
}

// handleCommand processes a command message from Core.
func (b *Bridge) handleCommand(payload []byte) {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logError("failed to parse command", err)
		return
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"device_id", cmd.DeviceID,
		"command", cmd.Command)

	path, ok := b.lookupPath(cmd.DeviceID)
	if !ok {
		b.publishAckError(cmd, ErrCodeNotConfigured,
			fmt.Sprintf("display %s not configured", cmd.DeviceID))
		return
	}

	switch cmd.Command {
	case "put_displaylist":
		b.executePutDisplayList(cmd, path)
	case "unlink":
		b.executeUnlink(cmd, path)
	default:
		b.publishAckError(cmd, ErrCodeInvalidCommand,
			fmt.Sprintf("unknown command: %s", cmd.Command))
	}
}

// executePutDisplayList decodes and loads a display list.
func (b *Bridge) executePutDisplayList(cmd CommandMessage, path string) {
	dataAny, ok := cmd.Parameters["data"]
	if !ok {
		b.publishAckError(cmd, ErrCodeInvalidParameters, "missing 'data' parameter")
		return
	}

	encoded, ok := dataAny.(string)
	if !ok {
		b.publishAckError(cmd, ErrCodeInvalidParameters, "'data' must be a base64 string")
		return
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		b.publishAckError(cmd, ErrCodeInvalidParameters,
			fmt.Sprintf("invalid base64 data: %v", err))
		return
	}

	h, err := b.registry.Open(path)
	if err != nil {
		b.publishAckError(cmd, errorCode(err), fmt.Sprintf("open %s: %v", path, err))
		return
	}
	defer h.Close()

	if _, err := h.Write(data); err != nil {
		b.publishAckError(cmd, errorCode(err), fmt.Sprintf("load display list: %v", err))
		return
	}

	b.publishAck(cmd, AckAccepted)
}

// executeUnlink removes a display's node from the namespace.
func (b *Bridge) executeUnlink(cmd CommandMessage, path string) {
	if err := b.registry.Unlink(path); err != nil {
		b.publishAckError(cmd, errorCode(err), fmt.Sprintf("unlink %s: %v", path, err))
		return
	}

	b.displayMu.Lock()
	delete(b.displays, cmd.DeviceID)
	displayCount := len(b.displays)
	b.displayMu.Unlock()
	b.health.SetDisplayCount(displayCount)

	b.publishAck(cmd, AckAccepted)
}

// publishAck publishes a command acknowledgment.
func (b *Bridge) publishAck(cmd CommandMessage, status AckStatus) {
	ack := NewAckMessage(cmd, status)

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}

	topic := AckTopic(cmd.DeviceID)
	if err := b.mqtt.Publish(topic, payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

// publishAckError publishes a failed command acknowledgment.
func (b *Bridge) publishAckError(cmd CommandMessage, code, message string) {
	ack := NewAckError(cmd, code, message)

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack error", err)
		return
	}

	topic := AckTopic(cmd.DeviceID)
	if err := b.mqtt.Publish(topic, payload, 1, false); err != nil {
		b.logError("failed to publish ack error", err)
	}

	b.logError("command failed",
		fmt.Errorf("code=%s message=%s", code, message))
}

// handleRequest processes a request message from Core.
func (b *Bridge) handleRequest(payload []byte) {
	var req RequestMessage
	if err := json.Unmarshal(payload, &req); err != nil {
		b.logError("failed to parse request", err)
		return
	}

	b.logInfo("received request",
		"request_id", req.RequestID,
		"action", req.Action)

	var resp ResponseMessage

	switch req.Action {
	case "get_result32":
		resp = b.handleGetResult32(req)
	case "get_tracker":
		resp = b.handleGetTracker(req)
	case "get_stats":
		resp = b.handleGetStats(req)
	case "list_displays":
		resp = b.handleListDisplays(req)
	default:
		resp = errorResponse(req, ErrCodeInvalidCommand,
			fmt.Sprintf("unknown action: %s", req.Action))
	}

	respPayload, err := json.Marshal(resp)
	if err != nil {
		b.logError("failed to marshal response", err)
		return
	}

	respTopic := ResponseTopic(req.RequestID)
	if err := b.mqtt.Publish(respTopic, respPayload, 1, false); err != nil {
		b.logError("failed to publish response", err)
	}
}

// handleGetResult32 reads a 32-bit value from display list memory.
func (b *Bridge) handleGetResult32(req RequestMessage) ResponseMessage {
	h, resp, ok := b.openForRequest(req)
	if !ok {
		return resp
	}
	defer h.Close()

	offsetAny, found := req.Parameters["offset"]
	if !found {
		return errorResponse(req, ErrCodeInvalidParameters, "offset is required")
	}
	offset, found := offsetAny.(float64)
	if !found || offset < 0 {
		return errorResponse(req, ErrCodeInvalidParameters, "offset must be a non-negative number")
	}

	value, err := h.GetResult32(uint32(offset))
	if err != nil {
		return errorResponse(req, errorCode(err), err.Error())
	}

	return successResponse(req, map[string]any{
		"offset": uint32(offset),
		"value":  value,
	})
}

// handleGetTracker reads the touch tracker register.
func (b *Bridge) handleGetTracker(req RequestMessage) ResponseMessage {
	h, resp, ok := b.openForRequest(req)
	if !ok {
		return resp
	}
	defer h.Close()

	value, err := h.GetTracker()
	if err != nil {
		return errorResponse(req, errorCode(err), err.Error())
	}

	return successResponse(req, map[string]any{
		"tag":   value & 0xff,
		"value": value >> 16,
		"raw":   value,
	})
}

// handleGetStats reports bus statistics for one display.
func (b *Bridge) handleGetStats(req RequestMessage) ResponseMessage {
	path, ok := b.lookupPath(req.DeviceID)
	if !ok {
		return errorResponse(req, ErrCodeNotConfigured,
			fmt.Sprintf("display %s not configured", req.DeviceID))
	}

	dev, err := b.registry.Device(path)
	if err != nil {
		return errorResponse(req, errorCode(err), err.Error())
	}

	stats := dev.GetStats()
	return successResponse(req, map[string]any{
		"bus_reads":     stats.BusReads,
		"bus_writes":    stats.BusWrites,
		"bytes_written": stats.BytesWritten,
		"bus_errors":    stats.BusErrors,
	})
}

// handleListDisplays enumerates configured displays.
func (b *Bridge) handleListDisplays(req RequestMessage) ResponseMessage {
	b.displayMu.RLock()
	displays := make([]map[string]any, 0, len(b.displays))
	for name, path := range b.displays {
		entry := map[string]any{
			"name": name,
			"path": path,
		}
		if dev, err := b.registry.Device(path); err == nil {
			entry["variant"] = string(dev.Variant())
			entry["frequency_hz"] = dev.Frequency()
		}
		displays = append(displays, entry)
	}
	b.displayMu.RUnlock()

	return successResponse(req, map[string]any{
		"displays": displays,
	})
}

// openForRequest resolves and opens the display targeted by a request.
// On failure the returned response carries the error and ok is false.
func (b *Bridge) openForRequest(req RequestMessage) (*eve.Handle, ResponseMessage, bool) {
	if req.DeviceID == "" {
		return nil, errorResponse(req, ErrCodeInvalidParameters, "device_id is required"), false
	}

	path, ok := b.lookupPath(req.DeviceID)
	if !ok {
		return nil, errorResponse(req, ErrCodeNotConfigured,
			fmt.Sprintf("display %s not configured", req.DeviceID)), false
	}

	h, err := b.registry.Open(path)
	if err != nil {
		return nil, errorResponse(req, errorCode(err), err.Error()), false
	}

	return h, ResponseMessage{}, true
}

// successResponse builds a successful response message.
func successResponse(req RequestMessage, data map[string]any) ResponseMessage {
	return ResponseMessage{
		RequestID: req.RequestID,
		Timestamp: time.Now().UTC(),
		Success:   true,
		Data:      data,
	}
}

// errorResponse builds a failed response message.
func errorResponse(req RequestMessage, code, message string) ResponseMessage {
	return ResponseMessage{
		RequestID: req.RequestID,
		Timestamp: time.Now().UTC(),
		Success:   false,
		Error: &ResponseError{
			Code:    code,
			Message: message,
		},
	}
}

// errorCode maps device and registry errors to bridge error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, eve.ErrInvalidArgument):
		return ErrCodeInvalidParameters
	case errors.Is(err, eve.ErrUnsupportedOp):
		return ErrCodeInvalidCommand
	case errors.Is(err, node.ErrNotFound):
		return ErrCodeNotConfigured
	case errors.Is(err, eve.ErrDestroyed), errors.Is(err, eve.ErrDeviceAbsent):
		return ErrCodeDeviceUnreachable
	default:
		return ErrCodeBridgeError
	}
}

// logInfo logs an informational message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error if logger is set.
func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
