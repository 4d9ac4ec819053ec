package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LLMEvent is a stored LLM request.
type LLMEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates calls sharing a purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

func (l *EventLog) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO llm_events (created_at, provider, model, purpose, input_tokens, output_tokens,
			latency_ms, success, error_message, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UnixMilli(), data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs, boolToInt(data.Success),
		data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// QueryLLMEvents returns LLM events newest first.
func (l *EventLog) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	where, args := opts.where("created_at")
	q := `SELECT id, created_at, provider, model, purpose, input_tokens, output_tokens,
		latency_ms, success, error_message, request_body, response_body
		FROM llm_events` + where + ` ORDER BY id DESC`
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetLLMEvent returns a single event, or nil when id is unknown.
func (l *EventLog) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, created_at, provider, model, purpose, input_tokens, output_tokens,
			latency_ms, success, error_message, request_body, response_body
		FROM llm_events WHERE id = ?`, id)
	e, err := scanLLMEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// LLMUsageBy aggregates LLM events grouped by "purpose" or "model".
func (l *EventLog) LLMUsageBy(ctx context.Context, column string) ([]LLMUsage, error) {
	if column != "purpose" && column != "model" {
		return nil, fmt.Errorf("unsupported grouping %q", column)
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*), SUM(1 - success), SUM(input_tokens), SUM(output_tokens),
			CAST(AVG(latency_ms) AS INTEGER)
		FROM llm_events GROUP BY `+column+` ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var u LLMUsage
		if err := rows.Scan(&u.Key, &u.Calls, &u.Failures, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLLMEvent(s scanner) (*LLMEvent, error) {
	var (
		e       LLMEvent
		ts      int64
		success int
	)
	err := s.Scan(&e.ID, &ts, &e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
		&e.LatencyMs, &success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		return nil, err
	}
	e.Timestamp = time.UnixMilli(ts)
	e.Success = success != 0
	return &e, nil
}

func (o QueryOpts) where(tsColumn string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if o.After > 0 {
		conds = append(conds, "id > ?")
		args = append(args, o.After)
	}
	if !o.From.IsZero() {
		conds = append(conds, tsColumn+" >= ?")
		args = append(args, o.From.UnixMilli())
	}
	if !o.To.IsZero() {
		conds = append(conds, tsColumn+" <= ?")
		args = append(args, o.To.UnixMilli())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
