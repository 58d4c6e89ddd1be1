package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// SaveReport stores one parsed report section. Each row's cells are kept as
// a JSON array in column order.
func (s *Store) SaveReport(ctx context.Context, runID, topic string, t *table.Table) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i, col := range t.Columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO report_columns (run_id, topic, position, name) VALUES (?, ?, ?, ?)`,
				runID, topic, i, col,
			); err != nil {
				return fmt.Errorf("failed to save column %s of %s: %w", col, topic, err)
			}
		}
		for i, row := range t.Rows {
			cells := make([]table.Value, len(t.Columns))
			for j, col := range t.Columns {
				cells[j] = row.Get(col)
			}
			data, err := json.Marshal(cells)
			if err != nil {
				return fmt.Errorf("failed to encode row %d of %s: %w", i, topic, err)
			}
			var name sql.NullString
			if len(t.Columns) > 0 {
				if v := row.Get(t.Columns[0]); !v.IsNull() {
					name = sql.NullString{String: v.String(), Valid: true}
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO report_rows (run_id, topic, row_index, name, cells) VALUES (?, ?, ?, ?, ?)`,
				runID, topic, i, name, string(data),
			); err != nil {
				return fmt.Errorf("failed to save row %d of %s: %w", i, topic, err)
			}
		}
		s.logger.Debug("saved report section", slog.String("topic", topic), slog.Int("rows", len(t.Rows)))
		return nil
	})
}

// Report loads a stored report section. The first column comes back as
// text, the others are parsed like report tokens.
func (s *Store) Report(ctx context.Context, runID, topic string) (*table.Table, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	cols, err := s.reportColumns(ctx, runID, topic)
	if err != nil {
		return nil, err
	}
	out := table.New(topic, cols...)

	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM report_rows WHERE run_id = ? AND topic = ? ORDER BY row_index`, runID, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to get report rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		row, err := decodeCells(data, cols)
		if err != nil {
			return nil, fmt.Errorf("failed to decode report row of %s: %w", topic, err)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}
	return out, nil
}

func (s *Store) reportColumns(ctx context.Context, runID, topic string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM report_columns WHERE run_id = ? AND topic = ? ORDER BY position`, runID, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to get report columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan report column: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func decodeCells(data string, cols []string) (table.Row, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var cells []any
	if err := dec.Decode(&cells); err != nil {
		return nil, err
	}
	row := make(table.Row, len(cols))
	for i, col := range cols {
		var v table.Value
		if i < len(cells) {
			switch c := cells[i].(type) {
			case json.Number:
				v = table.Parse(c.String())
			case string:
				v = table.Text(c)
			}
		}
		row[col] = v
	}
	return row, nil
}

// ReportTopics lists the topics stored for a run.
func (s *Store) ReportTopics(ctx context.Context, runID string) ([]string, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT topic FROM report_columns WHERE run_id = ? ORDER BY topic`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report topics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("failed to scan report topic: %w", err)
		}
		out = append(out, topic)
	}
	return out, rows.Err()
}
