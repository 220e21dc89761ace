package scene

// Kind tags how a scene request resolved.
type Kind int

const (
	KindOK Kind = iota
	// KindDegraded means the primary provider failed and the secondary succeeded.
	KindDegraded
	KindErr
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindDegraded:
		return "degraded"
	default:
		return "error"
	}
}

// Outcome is the tagged result of Resolve.
type Outcome struct {
	Kind  Kind
	Value Result
	// Suppressed is the primary provider's error for KindDegraded.
	Suppressed error
	// Err is the failure for KindErr.
	Err error
}

func ok(v Result) Outcome { return Outcome{Kind: KindOK, Value: v} }

func degraded(v Result, suppressed error) Outcome {
	return Outcome{Kind: KindDegraded, Value: v, Suppressed: suppressed}
}

func failed(err error) Outcome { return Outcome{Kind: KindErr, Err: err} }

// Unwrap collapses the outcome to the caller-facing shape. Degraded results
// are successes.
func (o Outcome) Unwrap() (Result, error) {
	if o.Kind == KindErr {
		return Result{}, o.Err
	}
	return o.Value, nil
}
