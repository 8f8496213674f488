package domain

// Token is one inscribed token output observed on chain. Ownership and
// balances are reconstructed purely from script shapes; nothing here enforces
// amount conservation across merges, subtracts or burns.
type Token struct {
	Id       string
	AssetId  string
	Txid     string
	Vout     uint32
	Owner    string
	Amt      uint64
	Op       string
	Metadata string
	Spent    bool
	SpentBy  string
}

// Outpoint identifies the transaction output carrying a token or listing.
type Outpoint struct {
	Txid string
	Vout uint32
}
