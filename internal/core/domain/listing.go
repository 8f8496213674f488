package domain

// Listing is one marketplace listing output observed on chain.
type Listing struct {
	Id            string
	AssetId       string
	Txid          string
	Vout          uint32
	CancelOwner   string
	Price         uint64
	PaymentScript string
	Metadata      string
	Spent         bool
	SpentBy       string
}
