package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventRepository persists AuditEvent rows.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository constructs an EventRepository over the given client.
func NewEventRepository(c *Client) *EventRepository {
	return &EventRepository{db: c.db}
}

// AppendEvent inserts a new audit event. A unique-constraint collision on
// event_id is translated to ErrDuplicateEvent rather than a raw driver
// error, so ingestion can treat it as an idempotent no-op.
func (r *EventRepository) AppendEvent(ctx context.Context, e *AuditEvent) error {
	raw := e.RawJSON
	if raw == nil {
		raw = json.RawMessage("{}")
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(event_id, block_number, event_timestamp, from_address, to_address,
			 contract_address, amount, raw_json, details_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING
	`, e.EventID, e.BlockNumber, e.Timestamp, e.From, e.To, e.ContractAddress,
		e.Amount, []byte(raw), e.DetailsHash)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	if n == 0 {
		return ErrDuplicateEvent
	}
	return nil
}

// GetEvent fetches a single event by its event_id.
func (r *EventRepository) GetEvent(ctx context.Context, eventID string) (*AuditEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT event_id, block_number, event_timestamp, from_address, to_address,
		       contract_address, amount, raw_json, details_hash, created_at
		FROM audit_events WHERE event_id = $1
	`, eventID)

	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// SelectUnproven returns up to limit events not referenced by any
// EventProof, ordered by (block_number, event_id) per order.
func (r *EventRepository) SelectUnproven(ctx context.Context, limit int, order SortOrder, minBlock *int64) ([]*AuditEvent, error) {
	dir := "ASC"
	if order == SortLatest {
		dir = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT e.event_id, e.block_number, e.event_timestamp, e.from_address, e.to_address,
		       e.contract_address, e.amount, e.raw_json, e.details_hash, e.created_at
		FROM audit_events e
		LEFT JOIN event_proofs p ON p.event_id = e.event_id
		WHERE p.event_id IS NULL
		  AND ($2::BIGINT IS NULL OR e.block_number >= $2)
		ORDER BY e.block_number %s, e.event_id %s
		LIMIT $1
	`, dir, dir)

	rows, err := r.db.QueryContext(ctx, query, limit, minBlock)
	if err != nil {
		return nil, fmt.Errorf("select unproven events: %w", err)
	}
	defer rows.Close()

	var events []*AuditEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("select unproven events: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountUnproven counts events without a proof, optionally bounded below by
// minBlock; used by the batcher's pending-threshold check.
func (r *EventRepository) CountUnproven(ctx context.Context, minBlock *int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM audit_events e
		LEFT JOIN event_proofs p ON p.event_id = e.event_id
		WHERE p.event_id IS NULL
		  AND ($1::BIGINT IS NULL OR e.block_number >= $1)
	`, minBlock).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unproven events: %w", err)
	}
	return count, nil
}

// MaxBlock returns the highest block_number present in the store, or 0 if
// the table is empty.
func (r *EventRepository) MaxBlock(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT MAX(block_number) FROM audit_events`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max block: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// EventFilter narrows Search's result set; zero values are "no filter".
type EventFilter struct {
	Address    string // matches From or To depending on Role
	Role       string // "from" | "to" | "" (either)
	TxPrefix   string // event_id prefix match
	MinAmount  *string
	MaxAmount  *string
	BlockMin   *int64
	BlockMax   *int64
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Order      SortOrder
}

// Search lists events matching filter, used by the events_recent and
// events_search tool-server endpoints.
func (r *EventRepository) Search(ctx context.Context, f EventFilter) ([]*AuditEvent, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	dir := "ASC"
	if f.Order == SortLatest || f.Order == "" {
		dir = "DESC"
	}

	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Address != "" {
		switch f.Role {
		case "from":
			where = append(where, "from_address = "+arg(f.Address))
		case "to":
			where = append(where, "to_address = "+arg(f.Address))
		default:
			p := arg(f.Address)
			where = append(where, fmt.Sprintf("(from_address = %s OR to_address = %s)", p, p))
		}
	}
	if f.TxPrefix != "" {
		where = append(where, "event_id LIKE "+arg(f.TxPrefix+"%"))
	}
	if f.MinAmount != nil {
		where = append(where, "amount::NUMERIC >= "+arg(*f.MinAmount)+"::NUMERIC")
	}
	if f.MaxAmount != nil {
		where = append(where, "amount::NUMERIC <= "+arg(*f.MaxAmount)+"::NUMERIC")
	}
	if f.BlockMin != nil {
		where = append(where, "block_number >= "+arg(*f.BlockMin))
	}
	if f.BlockMax != nil {
		where = append(where, "block_number <= "+arg(*f.BlockMax))
	}
	if f.StartTime != nil {
		where = append(where, "event_timestamp >= "+arg(*f.StartTime))
	}
	if f.EndTime != nil {
		where = append(where, "event_timestamp <= "+arg(*f.EndTime))
	}

	whereClause := ""
	for i, c := range where {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += c
	}

	limitPlaceholder := arg(limit)
	query := fmt.Sprintf(`
		SELECT event_id, block_number, event_timestamp, from_address, to_address,
		       contract_address, amount, raw_json, details_hash, created_at
		FROM audit_events
		WHERE %s
		ORDER BY block_number %s, event_id %s
		LIMIT %s
	`, whereClause, dir, dir, limitPlaceholder)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	var events []*AuditEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("search events: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListForBatch returns the events belonging to batchID's leaf set, joined
// through event_proofs, ordered by leaf_index.
func (r *EventRepository) ListForBatch(ctx context.Context, batchID string, limit int) ([]*AuditEvent, error) {
	if limit <= 0 || limit > 10000 {
		limit = 1000
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.event_id, e.block_number, e.event_timestamp, e.from_address, e.to_address,
		       e.contract_address, e.amount, e.raw_json, e.details_hash, e.created_at
		FROM audit_events e
		JOIN event_proofs p ON p.event_id = e.event_id
		WHERE p.batch_id = $1
		ORDER BY p.leaf_index ASC
		LIMIT $2
	`, batchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list batch events: %w", err)
	}
	defer rows.Close()

	var events []*AuditEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list batch events: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*AuditEvent, error) {
	var e AuditEvent
	var raw []byte
	var ts time.Time

	if err := row.Scan(&e.EventID, &e.BlockNumber, &ts, &e.From, &e.To,
		&e.ContractAddress, &e.Amount, &raw, &e.DetailsHash, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Timestamp = ts
	e.RawJSON = json.RawMessage(raw)
	return &e, nil
}
