package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/concertline/tickets/internal/domain"
)

// PostgresTicketTypeRepository implements TicketTypeRepository using PostgreSQL
type PostgresTicketTypeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketTypeRepository creates a new PostgresTicketTypeRepository
func NewPostgresTicketTypeRepository(pool *pgxpool.Pool) *PostgresTicketTypeRepository {
	return &PostgresTicketTypeRepository{pool: pool}
}

const ticketTypeColumns = `id, concert_id, position, label,
	COALESCE(description, '') as description,
	price,
	COALESCE(price_id, '') as price_id,
	qty_total, qty_available, qty_sold, display`

func scanTicketType(row pgx.Row) (*domain.TicketType, error) {
	t := &domain.TicketType{}
	err := row.Scan(
		&t.ID,
		&t.ConcertID,
		&t.Position,
		&t.Label,
		&t.Description,
		&t.Price,
		&t.PriceID,
		&t.QtyTotal,
		&t.QtyAvailable,
		&t.QtySold,
		&t.Display,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByConcert lists displayable ticket types for a concert in position order
func (r *PostgresTicketTypeRepository) ListByConcert(ctx context.Context, concertID int64) ([]domain.TicketType, error) {
	query := fmt.Sprintf(`SELECT %s FROM ticket_types WHERE concert_id = $1 AND display ORDER BY position`, ticketTypeColumns)

	rows, err := r.pool.Query(ctx, query, concertID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket types: %w", err)
	}
	defer rows.Close()

	var types []domain.TicketType
	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket type: %w", err)
		}
		types = append(types, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticket types: %w", err)
	}
	return types, nil
}

// GetByID retrieves a ticket type by ID
func (r *PostgresTicketTypeRepository) GetByID(ctx context.Context, id int64) (*domain.TicketType, error) {
	query := fmt.Sprintf(`SELECT %s FROM ticket_types WHERE id = $1`, ticketTypeColumns)

	t, err := scanTicketType(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketTypeNotFound
		}
		return nil, fmt.Errorf("failed to get ticket type: %w", err)
	}
	return t, nil
}

// UpdateStock writes recalculated sold and available counts inside tx
func (r *PostgresTicketTypeRepository) UpdateStock(ctx context.Context, tx pgx.Tx, id int64, qtySold, qtyAvailable int) error {
	query := `UPDATE ticket_types SET qty_sold = $2, qty_available = $3 WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, qtySold, qtyAvailable)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketTypeNotFound
	}
	return nil
}
