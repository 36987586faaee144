package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/cache"
	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
)

const defaultLeaderboardSize = 10

type LeaderboardService interface {
	// Top ranks users by total purchase value (descending) or by fastest
	// checkout (ascending). Users who never completed a checkout are
	// excluded from the checkout-time board.
	Top(ctx context.Context, sortBy string, limit int) ([]models.LeaderboardEntry, error)

	Invalidate(ctx context.Context)
}

type leaderboardService struct {
	userRepo  repository.UserRepository
	orderRepo repository.OrderRepository
	cache     cache.Cache
	cacheTTL  time.Duration
}

func NewLeaderboardService(userRepo repository.UserRepository, orderRepo repository.OrderRepository, cacheStore cache.Cache, cacheTTL time.Duration) LeaderboardService {
	return &leaderboardService{
		userRepo:  userRepo,
		orderRepo: orderRepo,
		cache:     cacheStore,
		cacheTTL:  cacheTTL,
	}
}

func (s *leaderboardService) Top(ctx context.Context, sortBy string, limit int) ([]models.LeaderboardEntry, error) {

	if sortBy == "" {
		sortBy = models.LeaderboardSortPurchases
	}

	if sortBy != models.LeaderboardSortPurchases && sortBy != models.LeaderboardSortCheckout {
		return nil, errors.ValidationError("Invalid leaderboard sort key")
	}

	if limit <= 0 {
		limit = defaultLeaderboardSize
	}

	// The board is identical for every viewer, so a short shared cache
	// absorbs the read storm during a sale.
	key := cache.Key(cache.LeaderboardKeyPrefix, sortBy)

	if s.cache != nil {
		var cached []models.LeaderboardEntry

		if found, err := s.cache.Get(ctx, key, &cached); err == nil && found && len(cached) >= limit {
			return cached[:limit], nil
		}
	}

	var (
		users []models.User
		err   error
	)

	switch sortBy {
	case models.LeaderboardSortCheckout:
		users, err = s.userRepo.TopByFastestCheckout(ctx, limit)
	default:
		users, err = s.userRepo.TopByPurchases(ctx, limit)
	}

	if err != nil {
		return nil, errors.DatabaseError("Failed to load leaderboard").WithError(err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))

	for i, user := range users {

		orders, err := s.orderRepo.CountByUser(ctx, user.ID)
		if err != nil {
			return nil, errors.DatabaseError("Failed to count orders").WithError(err)
		}

		entries = append(entries, models.LeaderboardEntry{
			Rank:            i + 1,
			User:            models.LeaderboardUser{ID: user.ID, Name: user.Name},
			TotalPurchases:  user.TotalPurchases,
			FastestCheckout: user.FastestCheckout,
			TotalOrders:     orders,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entries, s.cacheTTL); err != nil {
			middleware.LoggerFromContext(ctx).Warn("Failed to cache leaderboard", slog.Any("error", err))
		}
	}

	return entries, nil
}

func (s *leaderboardService) Invalidate(ctx context.Context) {

	if s.cache == nil {
		return
	}

	logger := middleware.LoggerFromContext(ctx)

	for _, sortBy := range []string{models.LeaderboardSortPurchases, models.LeaderboardSortCheckout} {
		if err := s.cache.Delete(ctx, cache.Key(cache.LeaderboardKeyPrefix, sortBy)); err != nil {
			logger.Warn("Failed to invalidate leaderboard cache", slog.String("sortBy", sortBy), slog.Any("error", err))
		}
	}
}
