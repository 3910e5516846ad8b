package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/concertline/tickets/internal/domain"
)

// PostgresConcertRepository implements ConcertRepository using PostgreSQL
type PostgresConcertRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresConcertRepository creates a new PostgresConcertRepository
func NewPostgresConcertRepository(pool *pgxpool.Pool) *PostgresConcertRepository {
	return &PostgresConcertRepository{pool: pool}
}

const concertColumns = `id, name, date, time,
	COALESCE(location, '') as location,
	COALESCE(description, '') as description,
	COALESCE(conductor, '') as conductor`

func scanConcert(row pgx.Row) (*domain.Concert, error) {
	concert := &domain.Concert{}
	err := row.Scan(
		&concert.ID,
		&concert.Name,
		&concert.Date,
		&concert.Time,
		&concert.Location,
		&concert.Description,
		&concert.Conductor,
	)
	if err != nil {
		return nil, err
	}
	return concert, nil
}

// ListUpcoming lists concerts whose date is today or later, soonest first
func (r *PostgresConcertRepository) ListUpcoming(ctx context.Context) ([]domain.Concert, error) {
	query := fmt.Sprintf(`SELECT %s FROM concerts WHERE date >= CURRENT_DATE ORDER BY date, time`, concertColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list concerts: %w", err)
	}
	defer rows.Close()

	var concerts []domain.Concert
	for rows.Next() {
		concert, err := scanConcert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concert: %w", err)
		}
		concerts = append(concerts, *concert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate concerts: %w", err)
	}
	return concerts, nil
}

// GetByID retrieves a concert by ID
func (r *PostgresConcertRepository) GetByID(ctx context.Context, id int64) (*domain.Concert, error) {
	query := fmt.Sprintf(`SELECT %s FROM concerts WHERE id = $1`, concertColumns)

	concert, err := scanConcert(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConcertNotFound
		}
		return nil, fmt.Errorf("failed to get concert: %w", err)
	}
	return concert, nil
}
