package metrics

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Activation codes
	RecordActivationCodeIssued(source string)
	RecordActivationAttempt(flow, result string)
	RecordActivationBlocked()

	// Device bindings
	RecordDeviceBound(flow string)
	RecordBindingRevoked(reason string)
	RecordBindingVerification(bound bool)
	RecordHeartbeat(success bool)

	// Dashboard authentication
	RecordLogin(success bool)

	// Gauges
	SetActiveBindingsCount(count int64)
	SetPendingActivationCodesCount(count int64)
	SetOnlineScreensCount(count int64)

	// Database
	RecordDatabaseQueryError(operation string)
}

// Code issue sources
const (
	SourceOwner  = "owner"
	SourcePlayer = "player"
)
