// Package log records bridge protocol traffic for offline analysis.
//
// Both endpoints can capture what crosses the wire at three layers:
// raw frames on the transport, decoded request and response envelopes
// on the wire, and lifecycle transitions in the bridge itself. Each
// observation is an Event, written as a CBOR stream to a .hlog file.
//
// Liveness and cancellation traffic (ping, cancel) is categorized as
// control so it can be filtered out when studying application calls.
//
// Typical host setup:
//
//	fileLog, err := log.NewFileLogger("session.hlog")
//	if err != nil { ... }
//	defer fileLog.Close()
//	cfg.Logger = log.Tee(fileLog, log.NewSlogAdapter(slogger))
//
// The hostlink-log command reads .hlog files back with Reader and
// Filter from this package.
package log
