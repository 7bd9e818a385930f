package ingest

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/gbdrill/internal/model"
)

const (
	factsTable     = "gbd"
	locationsTable = "locations"
)

// LoadFacts reads every row of the gbd table recorded under metric, skipping
// denied cause ids. An empty metric keeps all rows.
func LoadFacts(ctx context.Context, dbPath string, metric string, denied []int) ([]model.FactRow, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	query := "SELECT location_id, cause_id, sex_id, year, val FROM " + factsTable
	var args []any
	if metric != "" {
		query += " WHERE metric_name = ?"
		args = append(args, metric)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", factsTable, err)
	}
	defer func() { _ = rows.Close() }()

	skip := make(map[int]bool, len(denied))
	for _, id := range denied {
		skip[id] = true
	}

	var out []model.FactRow
	for rows.Next() {
		var row model.FactRow
		if err := rows.Scan(&row.LocationID, &row.CauseID, &row.SexID, &row.Year, &row.Value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if skip[row.CauseID] {
			continue
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}

// LoadLocations reads location display names. A database without a
// locations table yields an empty map.
func LoadLocations(ctx context.Context, dbPath string) (map[int]string, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	names := make(map[int]string)

	var exists int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", locationsTable,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("inspect schema: %w", err)
	}
	if exists == 0 {
		return names, nil
	}

	rows, err := db.QueryContext(ctx, "SELECT location_id, location_name FROM "+locationsTable)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", locationsTable, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}

	return names, nil
}
