// Package noolite implements the bridge between a NooLite MTRF64 USB adapter
// and an MQTT broker.
//
// # Architecture
//
// A single loop owns the serial link and shuttles between two buses:
//
//	┌──────────────┐   MQTT   ┌──────────────┐   UART    ┌──────────┐
//	│    Broker    │◄────────►│    Bridge    │◄─────────►│  MTRF64  │◄──► radio
//	└──────────────┘          └──────────────┘  17-byte  └──────────┘
//	                                              frames
//
// Each iteration polls the adapter, interprets complete frames into events,
// publishes them, fires due deferred events and writes queued commands.
//
// # Frames
//
// Every frame is 17 bytes in both directions:
//
//	st mode ctr res ch cmd fmt d0 d1 d2 d3 id0 id1 id2 id3 crc sp
//
// st is 171, sp is 172 and crc is the sum of the first 15 bytes mod 256.
// Encode and Decode convert between frames and typed values; Reassembler
// cuts frames out of the byte stream.
//
// # Topics
//
// Under a configurable prefix the bridge publishes echo/<ch>, switch/<ch>,
// state-f/<ch>, state-f/<ch>/brightness, temperature/<ch>, humidity/<ch>,
// battery/<ch> and LWT, and accepts commands on tx/<ch>, tx-f/<ch>,
// bind/<ch> and bind-f/<ch>.
//
// # Deferred events
//
// TEMPORARY_ON from a motion sensor publishes ON at once and an OFF after
// d0*5 seconds. The Scheduler holds one pending event per switch topic; a
// new ON, OFF or TEMPORARY_ON on the channel replaces it.
//
// # Thread Safety
//
// The Reassembler and Scheduler are owned by the loop goroutine. MQTT
// handlers only enqueue, so Bridge methods other than Send are safe for
// concurrent use.
package noolite
