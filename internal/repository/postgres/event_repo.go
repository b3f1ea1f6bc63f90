package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"collegeevents/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const eventColumns = `id, title, description, event_type, date, location, image, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns a domain.EventRepository implemented with Postgres.
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.EventType, &e.Date, &e.Location, &e.Image, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.NormalizeTimes()
	return e, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY date DESC, created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	e.NormalizeTimes()
	id := uuid.NewString()
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query, id, e.Title, e.Description, e.EventType, e.Date, e.Location, e.Image, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return translateError(err)
	}
	e.ID = id
	return nil
}

// Save overwrites every mutable column of the row with e's current values.
func (r *eventRepository) Save(ctx context.Context, e *domain.Event) error {
	if _, err := uuid.Parse(e.ID); err != nil {
		return domain.ErrNotFound
	}
	e.NormalizeTimes()
	query := `
		UPDATE events
		SET title = $2, description = $3, event_type = $4, date = $5, location = $6, image = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, e.ID, e.Title, e.Description, e.EventType, e.Date, e.Location, e.Image, e.UpdatedAt)
	if err != nil {
		return translateError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// translateError marks constraint violations as persistence errors so callers can answer 400.
func translateError(err error) error {
	var perr *pq.Error
	if errors.As(err, &perr) && perr.Code.Class() == "23" {
		return fmt.Errorf("%w: %s", domain.ErrPersistence, perr.Message)
	}
	return err
}
