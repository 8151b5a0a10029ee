package domain

// NavPoint is one NAV snapshot in a basket's history series. The series
// feeds volatility and drawdown analytics.
type NavPoint struct {
	BasketID    uint64
	Timestamp   int64 // unix seconds
	Nav         uint64
	NavPerToken uint64
	TotalSupply uint64
}

// RegistryRecord is the storage projection of one registry entry.
// Meta holds the kind-specific metadata as JSON.
type RegistryRecord struct {
	Kind        RegistryKind
	Name        string
	Creator     Mint
	CreatedAt   int64
	LastUpdated int64
	IsActive    bool
	Meta        []byte
}
