package contracts

import "errors"

// Sentinel errors shared across stages. Classify with errors.Is.
var (
	// ErrInsufficientHistory: fewer usable rows than lookback. Ticker is excluded.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrSourceFetch: the series source could not supply data.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrIndexUnavailable: the market index context could not be built.
	ErrIndexUnavailable = errors.New("market index unavailable")
)

// ExclusionReason maps a build error to a report reason
func ExclusionReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, ErrSourceFetch):
		return "source_fetch"
	case errors.Is(err, ErrIndexUnavailable):
		return "index_unavailable"
	default:
		return "build_failed"
	}
}
