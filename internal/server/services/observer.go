package services

// Outcomes reported to a SessionObserver.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeMissing            = "missing"
	OutcomeInvalid            = "invalid"
	OutcomeReuse              = "reuse"
	OutcomeError              = "error"
)

// SessionObserver receives session lifecycle events, typically for metrics.
type SessionObserver interface {
	LoginAttempt(outcome string)
	RefreshAttempt(outcome string)
	LogoutCompleted()
	ReuseDetected(revoked int)
}

type nopObserver struct{}

func (nopObserver) LoginAttempt(string)   {}
func (nopObserver) RefreshAttempt(string) {}
func (nopObserver) LogoutCompleted()      {}
func (nopObserver) ReuseDetected(int)     {}
