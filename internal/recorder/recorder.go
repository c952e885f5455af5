package recorder

import (
	"context"

	"github.com/google/uuid"

	"GridSentinel/internal/model"
)

// BarKind labels which fetch of a cycle a bar snapshot came from.
type BarKind string

const (
	BarsHistory BarKind = "history"
	BarsLatest  BarKind = "latest"
)

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordBars(ctx context.Context, cycleID uuid.UUID, kind BarKind, series model.PriceSeries) error
	RecordCycle(ctx context.Context, report *model.CycleReport) error
	Close() error
}
