// Package api serves the bridge's read-only HTTP status endpoints.
//
//	GET /api/v1/health    component health and version
//	GET /api/v1/metrics   bridge counters and Go runtime statistics
//	GET /api/v1/channels  channels seen on the air (requires the database)
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// It has no write endpoints; commands go through MQTT.
package api
