package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/pkg/logger"
	pkgredis "github.com/concertline/tickets/pkg/redis"
)

// ticketTypeCacheTTL keeps availability reads cheap during rushes
// while staying close enough to live stock. Clients re-validate
// before checkout anyway.
const ticketTypeCacheTTL = 2 * time.Second

// CachedTicketTypeRepository wraps a TicketTypeRepository with a
// short-lived Redis read-through cache on the concert listing. Single
// lookups and stock writes pass straight to the inner repository;
// callers drop the concert's cache entry with InvalidateConcert after
// committing a stock change.
type CachedTicketTypeRepository struct {
	inner TicketTypeRepository
	cache *pkgredis.Client
	log   *logger.Logger
}

// NewCachedTicketTypeRepository creates a new CachedTicketTypeRepository
func NewCachedTicketTypeRepository(inner TicketTypeRepository, cache *pkgredis.Client) *CachedTicketTypeRepository {
	return &CachedTicketTypeRepository{
		inner: inner,
		cache: cache,
		log:   logger.Get(),
	}
}

func ticketTypeCacheKey(concertID int64) string {
	return fmt.Sprintf("ticket_types:concert:%d", concertID)
}

// ListByConcert serves from cache when fresh, falling through to the
// database on miss or any cache error.
func (r *CachedTicketTypeRepository) ListByConcert(ctx context.Context, concertID int64) ([]domain.TicketType, error) {
	key := ticketTypeCacheKey(concertID)

	if cached, err := r.cache.Get(ctx, key).Result(); err == nil && cached != "" {
		var types []domain.TicketType
		if err := json.Unmarshal([]byte(cached), &types); err == nil {
			return types, nil
		}
		// Corrupt entry, fall through and rewrite
		r.log.Warn("discarding unreadable ticket type cache entry", zap.String("key", key))
	}

	types, err := r.inner.ListByConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(types); err == nil {
		if err := r.cache.Set(ctx, key, data, ticketTypeCacheTTL).Err(); err != nil {
			r.log.Warn("failed to cache ticket types", zap.String("key", key), zap.Error(err))
		}
	}
	return types, nil
}

// GetByID passes through to the inner repository
func (r *CachedTicketTypeRepository) GetByID(ctx context.Context, id int64) (*domain.TicketType, error) {
	return r.inner.GetByID(ctx, id)
}

// UpdateStock passes through to the inner repository. Invalidation
// happens via InvalidateConcert once the transaction commits; dropping
// the key mid-transaction would let a concurrent read refill the cache
// with stale counts.
func (r *CachedTicketTypeRepository) UpdateStock(ctx context.Context, tx pgx.Tx, id int64, qtySold, qtyAvailable int) error {
	return r.inner.UpdateStock(ctx, tx, id, qtySold, qtyAvailable)
}

// InvalidateConcert drops a concert's cached listing so the next read
// sees committed counts.
func (r *CachedTicketTypeRepository) InvalidateConcert(ctx context.Context, concertID int64) {
	if err := r.cache.Del(ctx, ticketTypeCacheKey(concertID)).Err(); err != nil {
		r.log.Warn("failed to invalidate ticket type cache", zap.Int64("concert_id", concertID), zap.Error(err))
	}
}
