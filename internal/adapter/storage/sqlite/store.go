package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/usecase"
)

// DefaultLimit caps list queries without an explicit limit.
const DefaultLimit = 100

const timeLayout = time.RFC3339Nano

// Store implements usecase.ResultStore and usecase.CheckpointStore.
type Store struct {
	db *sql.DB
}

var (
	_ usecase.ResultStore     = (*Store)(nil)
	_ usecase.CheckpointStore = (*Store)(nil)
)

// Open opens and migrates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	store, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New migrates db and wraps it.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResults stores the request of results and its awards in one
// transaction. Saving the same results twice replaces the earlier rows.
func (s *Store) SaveResults(ctx context.Context, results *domain.Results, awards []*domain.Award) error {
	req := NewRequestRow(results)
	rows := make([]AwardRow, 0, len(awards))
	for _, a := range awards {
		row, err := NewAwardRow(req.ID, a)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRequest(ctx, tx, req); err != nil {
		return err
	}
	for _, row := range rows {
		if err := insertAward(ctx, tx, row); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results %s: %w", req.ID, err)
	}
	return nil
}

func insertRequest(ctx context.Context, tx *sql.Tx, r RequestRow) error {
	assets, err := encodeJSON(r.Assets)
	if err != nil {
		return fmt.Errorf("encode assets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM awards WHERE request_id = ?`, r.ID); err != nil {
		return fmt.Errorf("replace request %s: %w", r.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO requests
			(id, engine, partners, from_city, to_city, depart_date, return_date, cabin, quantity, assets, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Engine, r.Partners, r.FromCity, r.ToCity, r.DepartDate, nullString(r.ReturnDate),
		r.Cabin, r.Quantity, assets, r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert request %s: %w", r.ID, err)
	}
	return nil
}

func insertAward(ctx context.Context, tx *sql.Tx, r AwardRow) error {
	fare, err := encodeJSON(r.Fare)
	if err != nil {
		return fmt.Errorf("encode fare: %w", err)
	}
	segments, err := encodeJSON(r.Segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO awards
			(request_id, engine, partner, from_city, to_city, date, cabin, mixed, stops, quantity,
			 exact, waitlisted, mileage, fees, airline, flight, aircraft, fare_codes, fare, segments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RequestID, r.Engine, r.Partner, r.FromCity, r.ToCity, r.Date, string(r.Cabin), r.Mixed, r.Stops,
		r.Quantity, r.Exact, r.Waitlisted, r.Mileage, r.Fees, r.Airline, r.Flight, r.Aircraft,
		r.FareCodes, fare, segments,
	)
	if err != nil {
		return fmt.Errorf("insert award %s %s: %w", r.Flight, r.FareCodes, err)
	}
	return nil
}

// AwardQuery selects stored awards. Empty fields match everything.
type AwardQuery struct {
	RequestID string
	Engine    string
	FromCity  string
	ToCity    string
	Date      string
	Cabin     domain.Cabin
	MaxStops  *int
	Limit     int
}

// ListAwards returns matching awards, rebuilt with their flights, by date
// and route.
func (s *Store) ListAwards(ctx context.Context, q AwardQuery) ([]*domain.Award, error) {
	rows, err := s.ListAwardRows(ctx, q)
	if err != nil {
		return nil, err
	}
	awards := make([]*domain.Award, 0, len(rows))
	for _, row := range rows {
		a, err := row.Award()
		if err != nil {
			return nil, err
		}
		awards = append(awards, a)
	}
	return awards, nil
}

// ListAwardRows returns the raw rows behind ListAwards.
func (s *Store) ListAwardRows(ctx context.Context, q AwardQuery) ([]AwardRow, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		where = append(where, clause)
		args = append(args, v)
	}
	if q.RequestID != "" {
		add("request_id = ?", q.RequestID)
	}
	if q.Engine != "" {
		add("engine = ?", strings.ToUpper(q.Engine))
	}
	if q.FromCity != "" {
		add("from_city = ?", strings.ToUpper(q.FromCity))
	}
	if q.ToCity != "" {
		add("to_city = ?", strings.ToUpper(q.ToCity))
	}
	if q.Date != "" {
		add("date = ?", q.Date)
	}
	if q.Cabin != "" {
		add("cabin = ?", string(q.Cabin))
	}
	if q.MaxStops != nil {
		add("stops <= ?", *q.MaxStops)
	}

	query := `
		SELECT id, request_id, engine, partner, from_city, to_city, date, cabin, mixed, stops, quantity,
		       exact, waitlisted, mileage, fees, airline, flight, aircraft, fare_codes, fare, segments
		FROM awards`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, from_city, to_city, id LIMIT ?"
	args = append(args, limit(q.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query awards: %w", err)
	}
	defer rows.Close()

	var out []AwardRow
	for rows.Next() {
		var (
			r              AwardRow
			cabin          string
			fare, segments string
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &r.Engine, &r.Partner, &r.FromCity, &r.ToCity, &r.Date,
			&cabin, &r.Mixed, &r.Stops, &r.Quantity, &r.Exact, &r.Waitlisted, &r.Mileage, &r.Fees,
			&r.Airline, &r.Flight, &r.Aircraft, &r.FareCodes, &fare, &segments); err != nil {
			return nil, fmt.Errorf("scan award: %w", err)
		}
		r.Cabin = domain.Cabin(cabin)
		if err := json.Unmarshal([]byte(fare), &r.Fare); err != nil {
			return nil, fmt.Errorf("decode fare of award %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(segments), &r.Segments); err != nil {
			return nil, fmt.Errorf("decode segments of award %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query awards: %w", err)
	}
	return out, nil
}

// RequestQuery selects stored requests, newest first.
type RequestQuery struct {
	Engine string
	Limit  int
}

// ListRequests returns matching requests.
func (s *Store) ListRequests(ctx context.Context, q RequestQuery) ([]RequestRow, error) {
	query := `
		SELECT id, engine, partners, from_city, to_city, depart_date, return_date, cabin, quantity, assets, created_at
		FROM requests`
	var args []interface{}
	if q.Engine != "" {
		query += " WHERE engine = ?"
		args = append(args, strings.ToUpper(q.Engine))
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit(q.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []RequestRow
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	return out, nil
}

// ErrRequestNotFound is returned by GetRequest for an unknown id.
var ErrRequestNotFound = errors.New("request not found")

// GetRequest returns the request with the given id.
func (s *Store) GetRequest(ctx context.Context, id string) (RequestRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, engine, partners, from_city, to_city, depart_date, return_date, cabin, quantity, assets, created_at
		FROM requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RequestRow{}, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(sc scanner) (RequestRow, error) {
	var (
		r          RequestRow
		ret        sql.NullString
		assets     string
		createdStr string
	)
	if err := sc.Scan(&r.ID, &r.Engine, &r.Partners, &r.FromCity, &r.ToCity, &r.DepartDate, &ret,
		&r.Cabin, &r.Quantity, &assets, &createdStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan request: %w", err)
	}
	r.ReturnDate = ret.String
	if err := json.Unmarshal([]byte(assets), &r.Assets); err != nil {
		return r, fmt.Errorf("decode assets of request %s: %w", r.ID, err)
	}
	createdAt, err := time.Parse(timeLayout, createdStr)
	if err != nil {
		return r, fmt.Errorf("decode created_at of request %s: %w", r.ID, err)
	}
	r.CreatedAt = createdAt
	return r, nil
}

// LoadCheckpoint returns the saved throttle state of engine, or nil.
func (s *Store) LoadCheckpoint(ctx context.Context, engine string) (*usecase.Checkpoint, error) {
	var until, last string
	var cp usecase.Checkpoint
	err := s.db.QueryRowContext(ctx,
		`SELECT until, remaining, last_request FROM checkpoints WHERE engine = ?`,
		strings.ToUpper(engine),
	).Scan(&until, &cp.Remaining, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", engine, err)
	}
	if cp.Until, err = parseTime(until); err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", engine, err)
	}
	if cp.LastRequest, err = parseTime(last); err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", engine, err)
	}
	return &cp, nil
}

// SaveCheckpoint replaces the throttle state of engine.
func (s *Store) SaveCheckpoint(ctx context.Context, engine string, cp usecase.Checkpoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (engine, until, remaining, last_request) VALUES (?, ?, ?, ?)
		ON CONFLICT (engine) DO UPDATE SET
			until = excluded.until, remaining = excluded.remaining, last_request = excluded.last_request`,
		strings.ToUpper(engine), formatTime(cp.Until), cp.Remaining, formatTime(cp.LastRequest),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", engine, err)
	}
	return nil
}

// formatTime stores the zero time as an empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func limit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}
