package withdrawal

// Outcome is the result of processing one request file in one tick.
type Outcome int

const (
	// OutcomeSkip leaves the file untouched: the recipient is offline or not authenticated.
	OutcomeSkip Outcome = iota
	// OutcomeSuccess moves the file to processed.
	OutcomeSuccess
	// OutcomeRetry counts a hard failure and moves the file to error at the retry cap.
	OutcomeRetry
	// OutcomeDeferred waits for inventory space with exponential backoff.
	OutcomeDeferred
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeDeferred:
		return "deferred"
	default:
		return "skip"
	}
}
