package domain

import "context"

type ListingRepository interface {
	AddListings(ctx context.Context, listings []Listing) (int, error)
	GetListingByOutpoint(ctx context.Context, outpoint Outpoint) (*Listing, error)
	GetListingsByAssetId(ctx context.Context, assetId string) ([]Listing, error)
	MarkListingSpent(ctx context.Context, outpoint Outpoint, spentBy string) error
	Close()
}
