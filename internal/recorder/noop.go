package recorder

import "SwingSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ string, _ *model.Signal) error { return nil }
func (n *NoopRecorder) RecordScan(_ *ScanEvent) error                { return nil }
func (n *NoopRecorder) RecentSignals(_ string, _ int) ([]model.Signal, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
