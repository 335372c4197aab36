package circuitbreaker

type State int

const (
	// requests pass through
	StateClosed State = iota

	// requests fail immediately with ErrCircuitOpen
	StateOpen

	// one probe is let through to see whether the dependency recovered
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
