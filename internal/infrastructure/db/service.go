package db

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/lootforge/lootd/internal/core/domain"
	"github.com/lootforge/lootd/internal/core/ports"
	badgerdb "github.com/lootforge/lootd/internal/infrastructure/db/badger"
)

// NewRepoManager opens the badger-backed stores under baseDir. An empty
// baseDir opens them in memory, which is what the tests and one-shot CLI
// invocations use.
func NewRepoManager(baseDir string, logger badger.Logger) (ports.RepoManager, error) {
	tokenRepo, err := badgerdb.NewTokenRepository(baseDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open token repository: %s", err)
	}
	listingRepo, err := badgerdb.NewListingRepository(baseDir, logger)
	if err != nil {
		tokenRepo.Close()
		return nil, fmt.Errorf("failed to open listing repository: %s", err)
	}

	return &repoManager{tokens: tokenRepo, listings: listingRepo}, nil
}

type repoManager struct {
	tokens   domain.TokenRepository
	listings domain.ListingRepository
}

func (m *repoManager) Tokens() domain.TokenRepository     { return m.tokens }
func (m *repoManager) Listings() domain.ListingRepository { return m.listings }

func (m *repoManager) Close() {
	m.tokens.Close()
	m.listings.Close()
}
