// Package cache provides a Redis read-through cache in front of a listing
// store. The store stays the source of truth: cache failures are logged and
// the call falls through to the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/domain"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"
)

const keyPrefix = "rental:listing:"

var cacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "rental",
		Name:      "listing_cache_requests_total",
		Help:      "Listing cache lookups by result (hit, miss, error)",
	},
	[]string{"result"},
)

// ListingRepository decorates a repository.ListingRepository with a Redis
// cache for single-listing reads.
type ListingRepository struct {
	next   repository.ListingRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

var _ repository.ListingRepository = (*ListingRepository)(nil)

// NewListingRepository wraps next with a cache whose entries expire after ttl.
func NewListingRepository(next repository.ListingRepository, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *ListingRepository {
	return &ListingRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func key(id string) string {
	return keyPrefix + id
}

// Create stores the listing and primes the cache with it.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	if err := r.next.Create(ctx, l); err != nil {
		return err
	}
	r.set(ctx, l)
	return nil
}

// GetByID serves from the cache when possible and fills it on a miss. The
// fill never replaces an existing entry, so a read that overlaps an Update
// cannot cache the row it read before the write.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if l, ok := r.get(ctx, id); ok {
		return l, nil
	}
	l, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, l)
	return l, nil
}

// List always reads from the store.
func (r *ListingRepository) List(ctx context.Context, filter repository.ListingFilter) ([]domain.Listing, error) {
	return r.next.List(ctx, filter)
}

// Update writes through to the store and replaces the cached copy with the
// stored record.
func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	if err := r.next.Update(ctx, l); err != nil {
		return err
	}
	r.set(ctx, l)
	return nil
}

// Delete removes the listing from the store and the cache. The cache entry is
// dropped even when the store reports not-found. A miss that read the row
// before the delete can still fill the cache; that entry lives until the TTL.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

// FindLegacy always reads from the store.
func (r *ListingRepository) FindLegacy(ctx context.Context) ([]domain.Listing, error) {
	return r.next.FindLegacy(ctx)
}

func (r *ListingRepository) get(ctx context.Context, id string) (_ *domain.Listing, ok bool) {
	var err error
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "CacheGetListing", "GET "+key(id))
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = nil
			cacheRequestsTotal.WithLabelValues("miss").Inc()
			return nil, false
		}
		cacheRequestsTotal.WithLabelValues("error").Inc()
		r.logger.WarnContext(ctx, "listing cache read failed",
			slog.String("listing_id", id),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	var l domain.Listing
	if err = json.Unmarshal(data, &l); err != nil {
		cacheRequestsTotal.WithLabelValues("error").Inc()
		r.logger.WarnContext(ctx, "discarding undecodable listing cache entry",
			slog.String("listing_id", id),
			slog.String("error", err.Error()),
		)
		r.invalidate(ctx, id)
		return nil, false
	}
	cacheRequestsTotal.WithLabelValues("hit").Inc()
	return &l, true
}

func (r *ListingRepository) encode(ctx context.Context, l *domain.Listing) ([]byte, bool) {
	data, err := json.Marshal(l)
	if err != nil {
		r.logger.WarnContext(ctx, "marshal listing for cache", slog.String("error", err.Error()))
		return nil, false
	}
	return data, true
}

// set writes l to the cache, replacing any entry.
func (r *ListingRepository) set(ctx context.Context, l *domain.Listing) {
	data, ok := r.encode(ctx, l)
	if !ok {
		return
	}
	if err := r.client.Set(ctx, key(l.ID), data, r.ttl).Err(); err != nil {
		r.warnWrite(ctx, l.ID, err)
	}
}

// fill writes l to the cache only when no entry exists.
func (r *ListingRepository) fill(ctx context.Context, l *domain.Listing) {
	data, ok := r.encode(ctx, l)
	if !ok {
		return
	}
	if err := r.client.SetNX(ctx, key(l.ID), data, r.ttl).Err(); err != nil {
		r.warnWrite(ctx, l.ID, err)
	}
}

func (r *ListingRepository) warnWrite(ctx context.Context, id string, err error) {
	r.logger.WarnContext(ctx, "listing cache write failed",
		slog.String("listing_id", id),
		slog.String("error", err.Error()),
	)
}

func (r *ListingRepository) invalidate(ctx context.Context, id string) {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		r.logger.WarnContext(ctx, "listing cache invalidation failed",
			slog.String("listing_id", id),
			slog.String("error", err.Error()),
		)
	}
}
