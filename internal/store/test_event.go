package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// TestEvent is a stored finished test.
type TestEvent struct {
	ID        int64
	Timestamp time.Time
	TestFinishedEventData
}

func (l *EventLog) AppendTestFinished(ctx context.Context, data TestFinishedEventData) error {
	payload, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode test event: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO test_events (created_at, user_id, kind, payload) VALUES (?, ?, ?, ?)`,
		time.Now().UnixMilli(), data.UserID, string(data.Kind), string(payload),
	)
	if err != nil {
		return fmt.Errorf("save test event: %w", err)
	}
	return nil
}

// QueryTestEvents returns finished tests newest first.
func (l *EventLog) QueryTestEvents(ctx context.Context, opts QueryOpts) ([]TestEvent, error) {
	where, args := opts.where("created_at")
	if opts.UserID != 0 {
		if where == "" {
			where = " WHERE user_id = ?"
		} else {
			where += " AND user_id = ?"
		}
		args = append(args, opts.UserID)
	}
	q := `SELECT id, created_at, payload FROM test_events` + where + ` ORDER BY id DESC`
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query test events: %w", err)
	}
	defer rows.Close()

	var out []TestEvent
	for rows.Next() {
		var (
			e       TestEvent
			ts      int64
			payload string
		)
		if err := rows.Scan(&e.ID, &ts, &payload); err != nil {
			return nil, fmt.Errorf("scan test event: %w", err)
		}
		if err := sonic.UnmarshalString(payload, &e.TestFinishedEventData); err != nil {
			return nil, fmt.Errorf("decode test event %d: %w", e.ID, err)
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
