package metrics

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

func successLabel(ok bool) string {
	if ok {
		return resultSuccess
	}
	return resultFailure
}

// RecordActivationCodeIssued records a freshly issued activation code
func (m *Metrics) RecordActivationCodeIssued(source string) {
	m.ActivationCodesIssuedTotal.WithLabelValues(source).Inc()
}

// RecordActivationAttempt records a redemption or claim outcome
func (m *Metrics) RecordActivationAttempt(flow, result string) {
	m.ActivationAttemptsTotal.WithLabelValues(flow, result).Inc()
}

// RecordActivationBlocked records a client crossing the failure threshold
func (m *Metrics) RecordActivationBlocked() {
	m.ActivationBlockedTotal.Inc()
}

func (m *Metrics) RecordDeviceBound(flow string) {
	m.DevicesBoundTotal.WithLabelValues(flow).Inc()
}

func (m *Metrics) RecordBindingRevoked(reason string) {
	m.BindingsRevokedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordBindingVerification(bound bool) {
	result := "unbound"
	if bound {
		result = "bound"
	}
	m.BindingVerificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordHeartbeat(success bool) {
	m.HeartbeatsTotal.WithLabelValues(successLabel(success)).Inc()
}

func (m *Metrics) RecordLogin(success bool) {
	m.LoginsTotal.WithLabelValues(successLabel(success)).Inc()
}

func (m *Metrics) SetActiveBindingsCount(count int64) {
	m.BindingsActive.Set(float64(count))
}

func (m *Metrics) SetPendingActivationCodesCount(count int64) {
	m.ActivationCodesPending.Set(float64(count))
}

func (m *Metrics) SetOnlineScreensCount(count int64) {
	m.ScreensOnline.Set(float64(count))
}

// RecordDatabaseQueryError records a failed gauge query
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
