package probe

import "context"

// Reason classifies why a probed stream was judged dead. An empty
// Reason means the stream is working.
type Reason string

const (
	// ReasonHTTPStatus marks a response with a status other than 200.
	ReasonHTTPStatus Reason = "http_status"
	// ReasonTransportError marks DNS, dial, TLS and other request
	// failures that produced no usable response.
	ReasonTransportError Reason = "transport_error"
	// ReasonTimeout marks probes that exceeded their time budget.
	ReasonTimeout Reason = "timeout"
	// ReasonContentMismatch marks manifest URLs whose body does not
	// look like an HLS playlist.
	ReasonContentMismatch Reason = "content_mismatch"
)

// Outcome is the unified verdict of a single stream probe.
//
// StatusCode is the HTTP status when a response was received; 0 for
// transport errors and timeouts. Message carries the status line or
// the error text for diagnostics.
type Outcome struct {
	Working    bool
	Reason     Reason
	StatusCode int
	Message    string
	LatencyMS  float64
}

// Checker performs a single reachability probe for a stream URL.
type Checker interface {
	Check(ctx context.Context, target string) Outcome
}
