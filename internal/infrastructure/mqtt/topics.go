package mqtt

import "fmt"

// Topic prefixes for the Gray Logic installation bus.
//
// All bridge topics use the flat scheme: graylogic/{category}/{protocol}/{address}
// The display service publishes and subscribes under the "display" protocol.
const (
	// TopicPrefixBridge is the base for all bridge topics.
	// Flat scheme: graylogic/{category}/{protocol}/{address_or_id}
	TopicPrefixBridge = "graylogic"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for Gray Logic MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.BridgeCommand("display", "panel-hall")
//	// Returns: "graylogic/command/display/panel-hall"
type Topics struct{}

// BridgeCommand returns the topic for commands to a bridge.
//
// Example: graylogic/command/display/panel-hall
func (Topics) BridgeCommand(protocol, address string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefixBridge, protocol, address)
}

// BridgeAck returns the topic for command acknowledgements from a bridge.
//
// Example: graylogic/ack/display/panel-hall
func (Topics) BridgeAck(protocol, address string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefixBridge, protocol, address)
}

// BridgeRequest returns the topic for requests to a bridge.
//
// Example: graylogic/request/display/req-abc123
func (Topics) BridgeRequest(protocol, requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefixBridge, protocol, requestID)
}

// BridgeResponse returns the topic for request responses from a bridge.
//
// Example: graylogic/response/display/req-abc123
func (Topics) BridgeResponse(protocol, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefixBridge, protocol, requestID)
}

// BridgeHealth returns the topic for bridge health status.
//
// Example: graylogic/health/display
func (Topics) BridgeHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefixBridge, protocol)
}

// BridgeEvent returns the topic for lifecycle events from a bridge.
//
// Example: graylogic/event/display/panel-hall
func (Topics) BridgeEvent(protocol, address string) string {
	return fmt.Sprintf("%s/event/%s/%s", TopicPrefixBridge, protocol, address)
}

// SystemStatus returns the system status topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// ProtocolCommands returns a pattern matching all commands to one protocol.
//
// Pattern: graylogic/command/display/+
func (Topics) ProtocolCommands(protocol string) string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefixBridge, protocol)
}

// ProtocolRequests returns a pattern matching all requests to one protocol.
//
// Pattern: graylogic/request/display/+
func (Topics) ProtocolRequests(protocol string) string {
	return fmt.Sprintf("%s/request/%s/+", TopicPrefixBridge, protocol)
}

// AllTopics returns a pattern matching all Gray Logic topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: graylogic/#
func (Topics) AllTopics() string {
	return "graylogic/#"
}
