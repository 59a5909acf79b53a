package repository

import (
	"context"
	"sync"

	"estatechat/internal/domain/entity"
	"estatechat/internal/domain/repository"
	"estatechat/pkg/errors"
)

type MemoryListingRepository struct {
	mu       sync.RWMutex
	listings map[string]*entity.Listing
}

var _ repository.ListingRepository = (*MemoryListingRepository)(nil)

func NewMemoryListingRepository(listings ...*entity.Listing) *MemoryListingRepository {
	r := &MemoryListingRepository{listings: make(map[string]*entity.Listing)}
	for _, l := range listings {
		r.Put(l)
	}
	return r
}

func (r *MemoryListingRepository) Put(listing *entity.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *listing
	cp.Images = append([]string(nil), listing.Images...)
	r.listings[listing.ID] = &cp
}

func (r *MemoryListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	cp := *listing
	cp.Images = append([]string(nil), listing.Images...)
	return &cp, nil
}
