// Package rpcpb defines the wire messages and service descriptors for
// the collector's two gRPC services (spec.md §4.2): SessionService,
// which hands a supervisor its environment overlay, and
// ReporterService, which accepts the client-streamed lifecycle events
// that make up an execution report. No .proto/protoc-generated stubs
// were available for this project, so the service plumbing below is
// hand-authored against grpc-go's public ServiceDesc/ClientConn APIs
// (see codec.go for why protobuf's own wire format was swapped for
// JSON rather than fabricating descriptor bytes).
package rpcpb

import "github.com/5c4lar/Bear/internal/report"

// EnvironmentRequest carries the supervisor's locally observed base
// environment so the collector can compute the overlay on top of it.
type EnvironmentRequest struct {
	Environment map[string]string `json:"environment"`
}

// EnvironmentResponse is the overlay the supervisor should union over
// its base environment before spawning the real program (spec.md §4.1
// "environment overlay").
type EnvironmentResponse struct {
	Environment map[string]string `json:"environment"`
}

// EventRequest is one client-streamed message of
// ReporterService.Report. Command is only present on the message
// carrying the "start" event; later messages for the same Pid omit it.
type EventRequest struct {
	Pid     int32           `json:"pid"`
	Ppid    int32           `json:"ppid,omitempty"`
	Command *report.Command `json:"command,omitempty"`
	Event   report.Event    `json:"event"`
}

// ReportSummary is ReporterService.Report's single response, sent once
// the client half-closes the stream.
type ReportSummary struct {
	EventsAccepted int32 `json:"events_accepted"`
}
