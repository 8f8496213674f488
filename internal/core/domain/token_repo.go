package domain

import "context"

type TokenRepository interface {
	AddTokens(ctx context.Context, tokens []Token) (int, error)
	GetTokenByOutpoint(ctx context.Context, outpoint Outpoint) (*Token, error)
	GetTokensByOwner(ctx context.Context, owner string) ([]Token, error)
	GetTokensByAssetId(ctx context.Context, assetId string) ([]Token, error)
	MarkTokenSpent(ctx context.Context, outpoint Outpoint, spentBy string) error
	Close()
}
