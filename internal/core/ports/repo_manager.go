package ports

import "github.com/lootforge/lootd/internal/core/domain"

// RepoManager gives access to the repositories backing the inventory index.
type RepoManager interface {
	Tokens() domain.TokenRepository
	Listings() domain.ListingRepository
	Close()
}
