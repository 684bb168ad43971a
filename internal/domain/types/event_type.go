package types

type JourneyEvent string

func (e JourneyEvent) String() string {
	return string(e)
}

const (
	EventJourneyStarted   JourneyEvent = "JOURNEY_STARTED"
	EventSampleAppended   JourneyEvent = "SAMPLE_APPENDED"
	EventJourneyFinalized JourneyEvent = "JOURNEY_FINALIZED"
)

// FinalizeReason tells why a journey was closed.
type FinalizeReason string

const (
	ReasonManual     FinalizeReason = "manual"
	ReasonInactivity FinalizeReason = "inactivity"
	ReasonCurfew     FinalizeReason = "curfew"
)

// Topic is the routing key segment of the event on the journey exchange.
func (e JourneyEvent) Topic() string {
	switch e {
	case EventJourneyStarted:
		return "started"
	case EventSampleAppended:
		return "sample"
	case EventJourneyFinalized:
		return "finalized"
	}
	return "unknown"
}

// Automatic reports whether the journey was closed by the server rather than the worker.
func (r FinalizeReason) Automatic() bool {
	return r == ReasonInactivity || r == ReasonCurfew
}
