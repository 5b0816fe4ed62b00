package valueobjects

type SessionStatus string

const (
	SessionStatusCreated     SessionStatus = "created"
	SessionStatusInitialized SessionStatus = "initialized"
	SessionStatusSettled     SessionStatus = "settled"
	SessionStatusFailed      SessionStatus = "failed"
	SessionStatusCancelled   SessionStatus = "cancelled"
)

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusCreated, SessionStatusInitialized, SessionStatusSettled,
		SessionStatusFailed, SessionStatusCancelled:
		return true
	default:
		return false
	}
}

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusSettled || s == SessionStatusFailed || s == SessionStatusCancelled
}

func (s SessionStatus) String() string {
	return string(s)
}
