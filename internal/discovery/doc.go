// Package discovery publishes Home Assistant MQTT discovery configs for
// NooLite devices behind the bridge.
//
// Each configured device becomes one or more retained JSON messages on
// <discovery_prefix>/<component>/<object_id>/config. A root
// binary_sensor tracks the bridge's own availability topic, and every
// other entity names it as via_device and uses the same topic for
// availability.
//
// Supported device types:
//
//	pm112  motion sensor            pt111  temperature and humidity
//	pt112  temperature              pl111  light sensor
//	ds1    door/window sensor       ws1    water leak sensor
//	pxx    remote (switch|button)   fox1   Foxel multi-sensor
//	sr1    relay (switch|light)     srf1   NooLite-F relay
//	su1    dimmer (light default)   suf1   NooLite-F dimmer
//	sb1    as su1
package discovery
