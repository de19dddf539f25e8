package recorder

import (
	"time"

	"SwingSentinel/internal/model"
)

// ScanEvent records the outcome of one scan cycle.
type ScanEvent struct {
	Symbol    string
	Trigger   string // "OPEN", "CLOSE", "MANUAL", "STARTUP", "TELEGRAM"
	StartedAt time.Time
	Price     string // empty when no sample was obtained
	Status    string // market status at the end of the cycle
	Signal    string // direction of the emitted signal, empty if none
	Error     string
}

// Recorder persists an audit trail of scans and signals.
type Recorder interface {
	RecordSignal(symbol string, sig *model.Signal) error
	RecordScan(evt *ScanEvent) error
	RecentSignals(symbol string, limit int) ([]model.Signal, error)
	Close() error
}
