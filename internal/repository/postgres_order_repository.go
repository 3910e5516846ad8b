package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/concertline/tickets/internal/domain"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(pool *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{pool: pool}
}

const orderColumns = `id, session_id, concert_id, status,
	COALESCE(customer_email, '') as customer_email,
	COALESCE(customer_name, '') as customer_name,
	total_amount, currency, created_at, updated_at, confirmed_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.SessionID,
		&order.ConcertID,
		&order.Status,
		&order.CustomerEmail,
		&order.CustomerName,
		&order.TotalAmount,
		&order.Currency,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Create persists a pending order with its line items and fills in
// the order's assigned ID
func (r *PostgresOrderRepository) Create(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO orders (session_id, concert_id, status, total_amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err = tx.QueryRow(ctx, query,
		order.SessionID,
		order.ConcertID,
		order.Status,
		order.TotalAmount,
		order.Currency,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, ticket_type_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`
	for _, item := range items {
		if _, err := tx.Exec(ctx, itemQuery, order.ID, item.TicketTypeID, item.Quantity, item.UnitPrice); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// ListItems retrieves an order's line items
func (r *PostgresOrderRepository) ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `SELECT id, order_id, ticket_type_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.TicketTypeID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return items, nil
}

// GetBySessionID retrieves an order by its payment session ID
func (r *PostgresOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE session_id = $1`, orderColumns)

	order, err := scanOrder(r.pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// Update writes an order's mutable fields inside tx
func (r *PostgresOrderRepository) Update(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	query := `UPDATE orders SET status = $2, customer_email = $3, customer_name = $4,
		updated_at = $5, confirmed_at = $6
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query,
		order.ID,
		order.Status,
		order.CustomerEmail,
		order.CustomerName,
		order.UpdatedAt,
		order.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// CreateTickets mints ticket rows for a confirmed order inside tx
func (r *PostgresOrderRepository) CreateTickets(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) error {
	query := `INSERT INTO tickets (serial, name, email, transaction_id, concert_id, ticket_type_id, valid, change_log, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(query, t.Serial, t.Name, t.Email, t.TransactionID, t.ConcertID, t.TicketTypeID, t.Valid, t.ChangeLog, t.CreatedAt)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range tickets {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
	}
	return nil
}

// CountSoldByType counts valid tickets per ticket type for a concert
func (r *PostgresOrderRepository) CountSoldByType(ctx context.Context, tx pgx.Tx, concertID int64) (map[int64]int, error) {
	query := `SELECT ticket_type_id, COUNT(*) FROM tickets
		WHERE concert_id = $1 AND valid
		GROUP BY ticket_type_id`

	rows, err := tx.Query(ctx, query, concertID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sold tickets: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var typeID int64
		var sold int
		if err := rows.Scan(&typeID, &sold); err != nil {
			return nil, fmt.Errorf("failed to scan sold count: %w", err)
		}
		counts[typeID] = sold
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sold counts: %w", err)
	}
	return counts, nil
}
