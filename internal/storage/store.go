package storage

import (
	"context"

	"adhocnet/internal/model"
)

// Store persists finished runs: the run summary, labelled network snapshots
// (for example "initial" and "final") and per-generation statistics.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveNetwork(ctx context.Context, runID, label string, snapshot model.NetworkSnapshot) error
	GetNetwork(ctx context.Context, runID, label string) (model.NetworkSnapshot, bool, error)
	SaveGenerationStats(ctx context.Context, runID string, stats []model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
}
