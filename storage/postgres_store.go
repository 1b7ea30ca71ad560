package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"leomaster/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id   SERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	tz   TEXT NOT NULL DEFAULT 'Europe/Moscow'
);

CREATE TABLE IF NOT EXISTS masters (
	id   SERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS masterclasses (
	id              SERIAL PRIMARY KEY,
	uid             TEXT UNIQUE NOT NULL,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	date            TIMESTAMPTZ,
	duration        INTEGER NOT NULL DEFAULT 0,
	age_restriction TEXT NOT NULL DEFAULT '',
	master_id       INTEGER REFERENCES masters (id) ON DELETE SET NULL,
	location_id     INTEGER REFERENCES locations (id) ON DELETE SET NULL,
	total_seats     INTEGER NOT NULL DEFAULT 0,
	avail_seats     INTEGER NOT NULL DEFAULT 0,
	price           NUMERIC(10,2) NOT NULL DEFAULT 0,
	online_price    NUMERIC(10,2) NOT NULL DEFAULT 0,
	max_complexity  INTEGER NOT NULL DEFAULT 0,
	complexity      INTEGER NOT NULL DEFAULT 0,
	creation_ts     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	modification_ts TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

ALTER TABLE masterclasses ADD COLUMN IF NOT EXISTS img_url         TEXT NOT NULL DEFAULT '';
ALTER TABLE masterclasses ADD COLUMN IF NOT EXISTS preview_img_url TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_masterclasses_date        ON masterclasses (date);
CREATE INDEX IF NOT EXISTS idx_masterclasses_creation_ts ON masterclasses (creation_ts);
`

const selectColumns = `
	mc.id, mc.uid, mc.title, mc.description, mc.date, mc.duration,
	mc.age_restriction, COALESCE(m.name, ''), mc.total_seats, mc.avail_seats,
	mc.price, mc.online_price, COALESCE(l.name, ''), mc.max_complexity,
	mc.complexity, mc.creation_ts, mc.modification_ts, mc.img_url,
	mc.preview_img_url
FROM masterclasses mc
LEFT JOIN masters m ON m.id = mc.master_id
LEFT JOIN locations l ON l.id = mc.location_id`

// PostgresStore stores masterclasses in PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresStore opens the database and pings it
func NewPostgresStore(ctx context.Context, connStr string, logger zerolog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info().Msg("connected to postgres")
	return &PostgresStore{db: db, logger: logger}, nil
}

// CreateTables creates the schema if it doesn't exist
func (s *PostgresStore) CreateTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	s.logger.Info().Msg("tables are ready")
	return nil
}

// List returns one page of q.Group.
func (s *PostgresStore) List(ctx context.Context, q Query) (Result, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	where, args, order := q.Group.clause(now)

	var count int
	countQuery := "SELECT COUNT(*) FROM masterclasses mc " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return Result{}, fmt.Errorf("count %s: %w", q.Group, err)
	}

	off, err := offset(q, count)
	if err != nil {
		return Result{}, err
	}

	n := len(args)
	listQuery := fmt.Sprintf("SELECT %s %s %s LIMIT $%d OFFSET $%d", selectColumns, where, order, n+1, n+2)
	rows, err := s.db.QueryContext(ctx, listQuery, append(args, q.PageSize, off)...)
	if err != nil {
		return Result{}, fmt.Errorf("list %s: %w", q.Group, err)
	}
	defer rows.Close()

	items := make([]models.Masterclass, 0, q.PageSize)
	for rows.Next() {
		mc, err := scanMasterclass(rows)
		if err != nil {
			return Result{}, err
		}
		items = append(items, mc)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("list %s: %w", q.Group, err)
	}
	return Result{Count: count, Items: items}, nil
}

func scanMasterclass(rows *sql.Rows) (models.Masterclass, error) {
	var (
		mc                 models.Masterclass
		date               sql.NullTime
		price, onlinePrice float64
	)
	err := rows.Scan(
		&mc.ID, &mc.UID, &mc.Title, &mc.Description, &date, &mc.Duration,
		&mc.AgeRestriction, &mc.Master, &mc.TotalSeats, &mc.AvailSeats,
		&price, &onlinePrice, &mc.Location, &mc.MaxComplexity,
		&mc.Complexity, &mc.CreationTS, &mc.ModificationTS, &mc.ImageURL,
		&mc.PreviewImageURL,
	)
	if err != nil {
		return mc, fmt.Errorf("scan masterclass: %w", err)
	}
	if date.Valid {
		mc.Date = date.Time
	}
	mc.Price = models.Decimal(price)
	mc.OnlinePrice = models.Decimal(onlinePrice)
	return mc, nil
}

// Upsert inserts or updates masterclasses by uid in a single transaction.
// Masters and locations are created by name on first use.
func (s *PostgresStore) Upsert(ctx context.Context, items []models.Masterclass) (n int, err error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	masterStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO masters (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer masterStmt.Close()

	locationStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO locations (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer locationStmt.Close()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO masterclasses (
			uid, title, description, date, duration, age_restriction,
			master_id, location_id, total_seats, avail_seats, price,
			online_price, max_complexity, complexity, img_url, preview_img_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (uid) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			date = EXCLUDED.date,
			duration = EXCLUDED.duration,
			age_restriction = EXCLUDED.age_restriction,
			master_id = EXCLUDED.master_id,
			location_id = EXCLUDED.location_id,
			total_seats = EXCLUDED.total_seats,
			avail_seats = EXCLUDED.avail_seats,
			price = EXCLUDED.price,
			online_price = EXCLUDED.online_price,
			max_complexity = EXCLUDED.max_complexity,
			complexity = EXCLUDED.complexity,
			img_url = EXCLUDED.img_url,
			preview_img_url = EXCLUDED.preview_img_url,
			modification_ts = NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, mc := range items {
		var masterID, locationID sql.NullInt64
		if masterID, err = getOrCreate(ctx, masterStmt, mc.Master); err != nil {
			return 0, fmt.Errorf("master %q: %w", mc.Master, err)
		}
		if locationID, err = getOrCreate(ctx, locationStmt, mc.Location); err != nil {
			return 0, fmt.Errorf("location %q: %w", mc.Location, err)
		}

		var date sql.NullTime
		if !mc.Date.IsZero() {
			date = sql.NullTime{Time: mc.Date, Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			mc.UID,
			mc.Title,
			mc.Description,
			date,
			mc.Duration,
			mc.AgeRestriction,
			masterID,
			locationID,
			mc.TotalSeats,
			mc.AvailSeats,
			mc.Price.Float(),
			mc.OnlinePrice.Float(),
			mc.MaxComplexity,
			mc.Complexity,
			mc.ImageURL,
			mc.PreviewImageURL,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert %s: %w", mc.UID, err)
		}
		n++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Int("upserted", n).Msg("saved masterclasses to postgres")
	return n, nil
}

func getOrCreate(ctx context.Context, stmt *sql.Stmt, name string) (sql.NullInt64, error) {
	if name == "" {
		return sql.NullInt64{}, nil
	}
	var id int64
	if err := stmt.QueryRowContext(ctx, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.NullInt64{}, fmt.Errorf("no id returned")
		}
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
