package core

import (
	"context"
	"time"
)

// ScanEvent is the audit record emitted after each analysis.
type ScanEvent struct {
	OrgID      int64
	Domain     string
	Category   RiskCategory
	Source     string
	OccurredAt time.Time
}

// ScanEventSink receives scan events. Writes are fire-and-forget from
// the analysis service's point of view: a failing sink must never affect
// a verdict that has already been computed.
type ScanEventSink interface {
	RecordScanEvent(ctx context.Context, event ScanEvent) error
}
