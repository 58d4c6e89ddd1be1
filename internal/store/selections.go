package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/trace"
)

// SaveSelection records the handles a trace selected, layer by layer. Rows
// are inserted in the same batches a GIS client would select them in.
func (s *Store) SaveSelection(ctx context.Context, runID string, sel trace.Selection) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, layer := range sel.Layers() {
			pos := 0
			for _, batch := range sel.Batches(layer, 0) {
				placeholders := make([]string, len(batch))
				args := make([]any, 0, len(batch)*4)
				for i, handle := range batch {
					placeholders[i] = "(?, ?, ?, ?)"
					args = append(args, runID, layer, pos, handle)
					pos++
				}
				query := `INSERT INTO selections (run_id, layer, position, handle) VALUES ` +
					strings.Join(placeholders, ", ")
				if _, err := tx.ExecContext(ctx, query, args...); err != nil {
					return fmt.Errorf("failed to save selection of %s: %w", layer, err)
				}
			}
		}
		return nil
	})
}

// Selection reads back the selection of a run.
func (s *Store) Selection(ctx context.Context, runID string) (trace.Selection, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT layer, handle FROM selections WHERE run_id = ? ORDER BY layer, position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get selection: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sel := trace.Selection{}
	for rows.Next() {
		var layer, handle string
		if err := rows.Scan(&layer, &handle); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		sel[layer] = append(sel[layer], handle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating selection: %w", err)
	}
	return sel, nil
}
