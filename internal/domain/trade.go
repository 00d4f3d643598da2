package domain

// TradeAction represents the direction of a historical trade.
type TradeAction string

// Trade action constants.
const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// HistoricalTrade is one observed on-chain trade of a candidate wallet,
// supplied by the ingestion collaborator. Immutable once constructed.
type HistoricalTrade struct {
	Mint        string      // token mint address
	Symbol      string      // token symbol, informational
	Action      TradeAction // BUY | SELL
	AmountSOL   float64     // trade size in SOL
	Price       float64     // execution price
	Timestamp   int64       // unix ms
	TxSignature string      // Solana transaction signature

	RealizedPnLSOL   *float64 // realized profit/loss, nil if unknown
	LiquidityAtTrade *float64 // pool liquidity observed at trade time, nil if unknown
}
