package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/suraksha/alertwatch/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			location_text TEXT NOT NULL,
			category TEXT NOT NULL,
			severity TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME,
			latitude REAL,
			longitude REAL,
			description TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_start_time ON alerts(start_time);
		CREATE INDEX IF NOT EXISTS idx_alerts_category ON alerts(category);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Add(ctx context.Context, a *models.AlertRecord) error {
	var lat, lon sql.NullFloat64
	if a.Coordinates != nil {
		lat = sql.NullFloat64{Float64: a.Coordinates.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: a.Coordinates.Longitude, Valid: true}
	}
	var end sql.NullTime
	if a.EndTime != nil {
		end = sql.NullTime{Time: *a.EndTime, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, title, location_text, category, severity, start_time, end_time, latitude, longitude, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.LocationText, string(a.Category), string(a.Severity),
		a.StartTime, end, lat, lon, a.Description, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting alert %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.AlertRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, location_text, category, severity, start_time, end_time, latitude, longitude, description, created_at
		FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching alert %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLiteDB) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM alerts WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking alert %s: %w", id, err)
	}
	return true, nil
}

func (s *SQLiteDB) List(ctx context.Context, opts Filter) ([]models.AlertRecord, error) {
	query := `
		SELECT id, title, location_text, category, severity, start_time, end_time, latitude, longitude, description, created_at
		FROM alerts`
	args := []any{}

	if opts.Since != nil {
		query += ` WHERE start_time >= ?`
		args = append(args, *opts.Since)
	}
	query += ` ORDER BY start_time DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.AlertRecord
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alert row: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteDB) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE start_time < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging alerts: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(row scanner) (*models.AlertRecord, error) {
	var (
		a        models.AlertRecord
		category string
		severity string
		end      sql.NullTime
		lat, lon sql.NullFloat64
	)
	err := row.Scan(&a.ID, &a.Title, &a.LocationText, &category, &severity,
		&a.StartTime, &end, &lat, &lon, &a.Description, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.Category = models.Category(category)
	a.Severity = models.Severity(severity)
	if end.Valid {
		t := end.Time
		a.EndTime = &t
	}
	if lat.Valid && lon.Valid {
		a.Coordinates = &models.Coordinate{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &a, nil
}
