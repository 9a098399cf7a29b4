package college

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"
	"github.com/onnwee/collegefit/internal/tracing"
)

const metaColumns = `id, unitid, name, city, state, zip_code, website_url, net_price_url,
	latitude, longitude, control, locale, region, is_hbcu, is_tribal`

// selectColumns lists the meta columns followed by every attribute column in
// declaration order; scanRecord relies on that order.
var selectColumns = func() string {
	names := make([]string, 0, len(attributeNames))
	for _, a := range AllAttributes() {
		names = append(names, a.String())
	}
	return metaColumns + ", " + strings.Join(names, ", ")
}()

// PostgresRepository implements Repository on the colleges table.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

// Find applies the state and cost filters in SQL.
func (r *PostgresRepository) Find(ctx context.Context, filter Filter) (coll Collection, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "colleges", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	filter = filter.Normalize()

	var (
		where []string
		args  []any
	)
	if len(filter.States) > 0 {
		args = append(args, pq.Array(filter.States))
		where = append(where, fmt.Sprintf("state = ANY($%d)", len(args)))
	}
	if filter.MaxCost != nil {
		args = append(args, *filter.MaxCost)
		where = append(where, fmt.Sprintf("cost_of_attendance <= $%d", len(args)))
	}

	query := "SELECT " + selectColumns + " FROM colleges"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	records, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find colleges",
			slog.String("error", err.Error()),
			slog.Any("states", filter.States))
		return Collection{}, err
	}
	return Collection{Columns: FullSchema(), Records: records}, nil
}

// GetByID loads a single college.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (rec *Record, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "colleges", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	row := r.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM colleges WHERE id = $1", id)
	out, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get college %d: %w", id, err)
	}
	return &out, nil
}

// Search matches query against the name with ILIKE.
func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) (recs []Record, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "colleges", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = 50
	}
	if query == "" {
		return r.queryRecords(ctx, "SELECT "+selectColumns+" FROM colleges ORDER BY id LIMIT $1", limit)
	}
	pattern := "%" + escapeLike(query) + "%"
	return r.queryRecords(ctx,
		"SELECT "+selectColumns+" FROM colleges WHERE name ILIKE $1 ORDER BY name LIMIT $2",
		pattern, limit)
}

// Insert writes one record; used by tests and seeding tools.
func (r *PostgresRepository) Insert(ctx context.Context, rec Record) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "colleges", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	attrs := AllAttributes()
	cols := make([]string, 0, len(attrs))
	placeholders := make([]string, 0, 15+len(attrs))
	args := []any{
		rec.ID, nullInt64(rec.UnitID), rec.Name, rec.City, rec.State, rec.ZIP,
		rec.Website, rec.NetPriceURL, rec.Latitude, rec.Longitude,
		rec.Control, rec.Locale, rec.Region, rec.IsHBCU, rec.IsTribal,
	}
	for _, a := range attrs {
		cols = append(cols, a.String())
		if v, ok := rec.Value(a); ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	for i := range args {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	stmt := fmt.Sprintf("INSERT INTO colleges (%s, %s) VALUES (%s)",
		metaColumns, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("failed to insert college %d: %w", rec.ID, err)
	}
	return nil
}

func (r *PostgresRepository) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query colleges: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan college: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate colleges: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (Record, error) {
	var (
		rec                          Record
		unitID                       sql.NullInt64
		city, state, zip, web, price sql.NullString
		lat, lng                     sql.NullFloat64
		control, locale, region      sql.NullInt64
		hbcu, tribal                 sql.NullBool
	)
	attrs := AllAttributes()
	values := make([]sql.NullFloat64, len(attrs))

	dest := []any{
		&rec.ID, &unitID, &rec.Name, &city, &state, &zip, &web, &price,
		&lat, &lng, &control, &locale, &region, &hbcu, &tribal,
	}
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := s.Scan(dest...); err != nil {
		return Record{}, err
	}

	rec.UnitID = unitID.Int64
	rec.City = city.String
	rec.State = state.String
	rec.ZIP = zip.String
	rec.Website = web.String
	rec.NetPriceURL = price.String
	rec.Latitude = floatPtr(lat)
	rec.Longitude = floatPtr(lng)
	rec.Control = intPtr(control)
	rec.Locale = intPtr(locale)
	rec.Region = intPtr(region)
	rec.IsHBCU = hbcu.Bool
	rec.IsTribal = tribal.Bool

	rec.Values = make(map[Attribute]float64)
	for i, a := range attrs {
		if values[i].Valid {
			rec.Values[a] = values[i].Float64
		}
	}
	return Derive(rec), nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
