package domain

// RegistryKind names the four independent registries.
type RegistryKind string

const (
	RegistryAlgorithm RegistryKind = "ALGORITHM"
	RegistryOracle    RegistryKind = "ORACLE"
	RegistryDex       RegistryKind = "DEX"
	RegistryStrategy  RegistryKind = "STRATEGY"
)

// AlgorithmMeta describes a registered weight algorithm.
type AlgorithmMeta struct {
	Version string
}

// OracleMeta describes a registered price oracle.
type OracleMeta struct {
	Endpoint string
	Provider string // e.g. "pyth", "switchboard", "chainlink"
}

// DexMeta describes a registered DEX venue.
type DexMeta struct {
	ProgramID string
	FeeBps    uint64
}

// StrategyMeta describes a registered strategy bundle.
type StrategyMeta struct {
	ConfigID uint64
}
