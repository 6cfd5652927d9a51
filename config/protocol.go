package config

// NanoErg is the smallest on-chain value unit; one ERG is 10^9 of them.
const (
	NanoErg = 1
	Erg     = 1_000_000_000 * NanoErg
)

// Protocol defaults. The dust floor and fees are configurable; these are
// only the values used when nothing else is set.
const (
	// DefaultMinBoxValue is the dust floor every output must meet.
	DefaultMinBoxValue = 1_000_000

	// DefaultNetworkFee is the suggested miner fee per transaction.
	DefaultNetworkFee = 1_100_000

	// DefaultAppFee is the operator fee charged per mint or burn.
	DefaultAppFee = 1_000_000

	// MinerFeeTree is the reserved script that pays the block miner.
	MinerFeeTree = "1005040004000e36100204a00b08cd0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798ea02d192a39a8cc7a701730073011001020402d19683030193a38cc7b2a57300000193c2b2a57301007473027303830108cdeeac93b1a57304"
)

// Transaction size limits enforced before anything is handed to a signer.
const (
	MaxTxInputs    = 2500 // Max inputs per transaction
	MaxTxOutputs   = 2500 // Max outputs per transaction
	MaxScriptData  = 4096 // Max ergoTree bytes per output
	MaxBoxTokens   = 100  // Max distinct tokens per box
	MaxRegisterLen = 4096 // Max hex characters per register
)
