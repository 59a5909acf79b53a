package repository

import (
	"context"

	"estatechat/internal/domain/entity"
)

type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
}
