package guard

type Outcome int

const (
	Rejected Outcome = iota
	Locked
	Accepted
)

func (o Outcome) String() string {
	switch o {
	case Locked:
		return "locked"
	case Accepted:
		return "accepted"
	default:
		return "rejected"
	}
}

// Identity is what an accepted login exposes about the account.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Verdict struct {
	Outcome Outcome
	// RetryAfterMinutes is set for Locked verdicts.
	RetryAfterMinutes int
	// Identity is set for Accepted verdicts.
	Identity *Identity
}

func rejected() Verdict {
	return Verdict{Outcome: Rejected}
}

func locked(retryAfterMinutes int) Verdict {
	return Verdict{Outcome: Locked, RetryAfterMinutes: retryAfterMinutes}
}

func accepted(identity Identity) Verdict {
	return Verdict{Outcome: Accepted, Identity: &identity}
}
