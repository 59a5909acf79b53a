package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"estatechat/internal/domain/entity"
	"estatechat/internal/domain/repository"
	"estatechat/pkg/errors"
)

type firestoreListingRepository struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreListingRepository(client *firestore.Client, collection string) repository.ListingRepository {
	if collection == "" {
		collection = "properties"
	}
	return &firestoreListingRepository{
		client:     client,
		collection: collection,
	}
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("get listing", "Listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}
	listing.ID = doc.Ref.ID
	return &listing, nil
}
