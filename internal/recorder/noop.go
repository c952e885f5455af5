package recorder

import (
	"context"

	"github.com/google/uuid"

	"GridSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBars(context.Context, uuid.UUID, BarKind, model.PriceSeries) error {
	return nil
}
func (n *NoopRecorder) RecordCycle(context.Context, *model.CycleReport) error { return nil }
func (n *NoopRecorder) Close() error                                          { return nil }
