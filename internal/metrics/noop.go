package metrics

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NoopMetrics discards every measurement. Used when metrics are disabled.
type NoopMetrics struct{}

// NewNoopMetrics returns a Recorder that records nothing
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordActivationCodeIssued(string)      {}
func (n *NoopMetrics) RecordActivationAttempt(string, string) {}
func (n *NoopMetrics) RecordActivationBlocked()               {}

func (n *NoopMetrics) RecordDeviceBound(string)             {}
func (n *NoopMetrics) RecordBindingRevoked(string)          {}
func (n *NoopMetrics) RecordBindingVerification(bool)       {}
func (n *NoopMetrics) RecordHeartbeat(bool)                 {}
func (n *NoopMetrics) RecordLogin(bool)                     {}
func (n *NoopMetrics) SetActiveBindingsCount(int64)         {}
func (n *NoopMetrics) SetPendingActivationCodesCount(int64) {}
func (n *NoopMetrics) SetOnlineScreensCount(int64)          {}
func (n *NoopMetrics) RecordDatabaseQueryError(string)      {}
