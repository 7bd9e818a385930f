package ingest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/gbdrill/internal/model"
)

// Dataset is everything the query layer needs, loaded once at start-up
type Dataset struct {
	Causes    []model.CauseDef
	Facts     []model.FactRow
	Locations map[int]string
}

// Load reads the hierarchy, the fact table and the location names concurrently.
// Configured location-name overrides replace names from the database.
func Load(ctx context.Context, cfg model.DataConfig) (*Dataset, error) {
	ds := &Dataset{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		causes, err := LoadHierarchy(cfg.HierarchyPath, cfg.CausesSelector)
		if err != nil {
			return fmt.Errorf("load hierarchy: %w", err)
		}
		ds.Causes = causes
		return nil
	})

	g.Go(func() error {
		rows, err := LoadFacts(ctx, cfg.FactsDB, cfg.Metric, cfg.DeniedCauses)
		if err != nil {
			return fmt.Errorf("load facts: %w", err)
		}
		ds.Facts = rows
		return nil
	})

	g.Go(func() error {
		names, err := LoadLocations(ctx, cfg.FactsDB)
		if err != nil {
			return fmt.Errorf("load locations: %w", err)
		}
		ds.Locations = names
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for id, name := range cfg.LocationNames {
		ds.Locations[id] = name
	}

	return ds, nil
}
