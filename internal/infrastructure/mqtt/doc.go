// Package mqtt wraps the paho MQTT client for the NooLite bridge.
//
// It handles:
//   - connection with auto-reconnect and subscription restore
//   - the availability topic (<prefix>/LWT): a retained Offline will,
//     Online on every connect and Offline on Close
//   - publish and subscribe with validation and bounded waits
//   - panic recovery around message handlers
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("noolite/tx/#", 0, func(topic string, payload []byte) error {
//	    return handleCommand(topic, payload)
//	})
//
// One-shot tools use ConnectSession, which picks a unique client ID and
// leaves the availability topic untouched.
//
// Use TLS (mqtt.broker.tls) whenever the broker is not on localhost.
package mqtt
