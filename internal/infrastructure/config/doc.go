// Package config loads and validates the bridge configuration.
//
// Settings come from a YAML file, then an optional .env file, then
// NOOLITE_SECTION_KEY environment variables. Broker credentials and the
// InfluxDB token are best supplied through the environment.
//
// Usage:
//
//	cfg, err := config.Load("/etc/noolite-mqtt/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.MQTT.Prefix)
package config
