package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/gbdrill/internal/facts"
	"github.com/ppiankov/gbdrill/internal/hierarchy"
	"github.com/ppiankov/gbdrill/internal/ingest"
	"github.com/ppiankov/gbdrill/internal/model"
	"github.com/ppiankov/gbdrill/internal/query"
	"github.com/ppiankov/gbdrill/internal/worker"
)

// loaded is a query service together with the sizes of what it was built from
type loaded struct {
	svc   *query.Service
	nodes int
	rows  int
}

// loadService reads the configured dataset and builds a query service over it
func loadService(ctx context.Context, cfg *model.Config, logger *slog.Logger, opts ...query.Option) (*loaded, error) {
	ds, err := ingest.Load(ctx, cfg.Data)
	if err != nil {
		return nil, err
	}

	tree, err := hierarchy.Build(ds.Causes, hierarchy.WithDenied(cfg.Data.DeniedCauses...))
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}
	table := facts.NewTable(ds.Facts)

	logger.Info("dataset loaded",
		"causes", tree.Len(),
		"leaves", len(tree.Leaves()),
		"rows", table.Len(),
		"locations", len(ds.Locations),
		"years", len(table.Years()),
	)

	opts = append([]query.Option{
		query.WithLogger(logger),
		query.WithLocations(ds.Locations),
		query.WithPool(worker.NewPool(cfg.Concurrency.YearWorkers)),
	}, opts...)

	return &loaded{
		svc:   query.New(tree, table, opts...),
		nodes: tree.Len(),
		rows:  table.Len(),
	}, nil
}
