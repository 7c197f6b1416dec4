package obituary

import (
	"context"
	"fmt"
	"log"
	"time"

	apperrors "memorial-ledger-backend/internal/errors"
	"memorial-ledger-backend/redis"
)

const cacheTTL = 24 * time.Hour

type Service interface {
	GetObituary(ctx context.Context, memorialID string) (*Obituary, error)
}

type ServiceImpl struct {
	client Client
	cache  *redis.Cache
}

func NewService(client Client, cache *redis.Cache) *ServiceImpl {
	return &ServiceImpl{client: client, cache: cache}
}

func (s *ServiceImpl) GetObituary(ctx context.Context, memorialID string) (*Obituary, error) {
	cacheKey := fmt.Sprintf("obituary:m:%s", memorialID)

	var cached Obituary
	if found, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
		log.Printf("obituary cache read failed: %v", err)
	} else if found {
		return &cached, nil
	}

	obituary, err := s.client.FetchObituary(ctx, memorialID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.cache.Set(ctx, cacheKey, obituary, cacheTTL); err != nil {
		log.Printf("obituary cache write failed: %v", err)
	}

	return obituary, nil
}
