// Package mqtt provides MQTT client connectivity for Gray Logic Display.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Gray Logic uses MQTT as the installation message bus. The display
// service is a protocol bridge on this bus: it receives commands and
// requests from Core and answers with acks and responses, the same
// way the KNX and DALI bridges do.
//
//	Gray Logic Core ↔ MQTT Broker ↔ Display Service
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all display commands
//	err = client.Subscribe(mqtt.Topics{}.ProtocolCommands("display"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish an acknowledgement
//	topic := mqtt.Topics{}.BridgeAck("display", "panel-hall")
//	client.Publish(topic, []byte(`{"status":"ok"}`), 1, false)
package mqtt
