package costledger

import "strings"

// Input column names, case-sensitive, as they appear in source files.
const (
	ColPortfolio     = "Portfolio"
	ColParentCompany = "Parent company"
	ColLegalEntity   = "Legal entity"
	ColCustodian     = "Custodian"
	ColAccount       = "Account"
	ColSecurity      = "Security"
	ColCurrency      = "Currency"
	ColSide          = "B/S"
	ColTradeID       = "Trade ID"
	ColTradeDate     = "Trade date"
	ColSettleDate    = "Settle date"
	ColQuantity      = "Quantity"
	ColPrice         = "Price"
	ColFXRate        = "FX rate"
	ColTotalCCY      = "Total (Original CCY)"
	ColTotalUSD      = "Total USD"
)

// RequiredColumns lists every column a transaction batch must carry, in
// canonical order.
var RequiredColumns = []string{
	ColPortfolio, ColParentCompany, ColLegalEntity, ColCustodian, ColAccount,
	ColSecurity, ColCurrency, ColSide, ColTradeID, ColTradeDate, ColSettleDate,
	ColQuantity, ColPrice, ColFXRate, ColTotalCCY, ColTotalUSD,
}

// GroupKeyColumns are the organizational columns a consolidation level may
// group by. Security is always appended implicitly by the engine.
var GroupKeyColumns = []string{
	ColPortfolio, ColParentCompany, ColLegalEntity, ColCustodian, ColAccount,
}

// LedgerFields are the nine derived fields the engine writes per level, in
// output column order.
var LedgerFields = []string{
	"Transaction Cost USD",
	"Transaction Cost CCY",
	"Cumulative Quantity",
	"Cumulative Cost CCY",
	"Cumulative Cost USD",
	"Cost per Unit USD",
	"Cost per Unit CCY",
	"Realized Gain/Loss CCY",
	"Realized Gain/Loss USD",
}

// Transaction is one immutable input row. Dates use the YYYY-MM-DD form;
// numeric fields are already typed by the import boundary.
type Transaction struct {
	Portfolio     string  `json:"portfolio"`
	ParentCompany string  `json:"parent_company"`
	LegalEntity   string  `json:"legal_entity"`
	Custodian     string  `json:"custodian"`
	Account       string  `json:"account"`
	Security      string  `json:"security"`
	Currency      string  `json:"currency"`
	Side          string  `json:"side"`
	TradeID       string  `json:"trade_id"`
	TradeDate     string  `json:"trade_date"`
	SettleDate    string  `json:"settle_date"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	FXRate        float64 `json:"fx_rate"`
	TotalCCY      float64 `json:"total_ccy"`
	TotalUSD      float64 `json:"total_usd"`
}

// IsBuy reports whether the direction flag marks a purchase. The flag is the
// single source of truth for sign handling; input signs on Quantity and the
// totals are never trusted.
func (t Transaction) IsBuy() bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(t.Side)), "B")
}

// LevelFigures holds the nine derived values for one (transaction, level)
// pair. Realized gain/loss is zero for buys; buys never realize P&L under
// weighted-average costing.
type LevelFigures struct {
	TransactionCostUSD  float64 `json:"transaction_cost_usd"`
	TransactionCostCCY  float64 `json:"transaction_cost_ccy"`
	CumulativeQuantity  float64 `json:"cumulative_quantity"`
	CumulativeCostCCY   float64 `json:"cumulative_cost_ccy"`
	CumulativeCostUSD   float64 `json:"cumulative_cost_usd"`
	CostPerUnitUSD      float64 `json:"cost_per_unit_usd"`
	CostPerUnitCCY      float64 `json:"cost_per_unit_ccy"`
	RealizedGainLossCCY float64 `json:"realized_gain_loss_ccy"`
	RealizedGainLossUSD float64 `json:"realized_gain_loss_usd"`
}

// AnnotatedTransaction is an input row plus the derived figures for every
// configured level, keyed by level name.
type AnnotatedTransaction struct {
	Transaction
	RowIndex int                     `json:"row_index"`
	Levels   map[string]LevelFigures `json:"levels"`
}

// Holding is a point-in-time open position at one consolidation level.
type Holding struct {
	Keys            map[string]string `json:"keys"`
	Security        string            `json:"security"`
	Currency        string            `json:"currency"`
	CurrentQuantity float64           `json:"current_quantity"`
	CurrentCostUSD  float64           `json:"current_cost_usd"`
	CurrentCostCCY  float64           `json:"current_cost_ccy"`
	WACPerUnitUSD   float64           `json:"wac_per_unit_usd"`
	WACPerUnitCCY   float64           `json:"wac_per_unit_ccy"`
	LastTradeDate   string            `json:"last_trade_date"`
}

// Diagnostic codes for non-fatal conditions raised during a ledger build.
const (
	DiagShortPosition = "SHORT_POSITION"
	DiagRowFault      = "ROW_FAULT"
)

// Diagnostic reports a non-fatal anomaly on one row at one level. The batch
// always completes; diagnostics are the only signal something was off.
type Diagnostic struct {
	RowIndex int    `json:"row_index"`
	TradeID  string `json:"trade_id"`
	Level    string `json:"level"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Batch describes one stored transaction batch.
type Batch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	RowCount  int    `json:"row_count"`
	CreatedAt string `json:"created_at"`
}

// BatchResult is returned when a batch is created: the stored batch plus any
// diagnostics raised while building its ledger.
type BatchResult struct {
	Batch
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// AISettings configures the holdings review feature. The API key is read
// from the environment and never persisted.
type AISettings struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Tone     string `json:"tone"`
}

// ReviewResult is a stored AI commentary over a holdings snapshot.
type ReviewResult struct {
	ID         int64  `json:"id"`
	BatchID    string `json:"batch_id"`
	Level      string `json:"level"`
	AsOf       string `json:"as_of,omitempty"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Commentary string `json:"commentary"`
	PromptHash string `json:"prompt_hash"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// OperationLog records one mutating or notable operation for audit display.
type OperationLog struct {
	ID        int64   `json:"id"`
	Operation string  `json:"operation_type"`
	BatchID   *string `json:"batch_id,omitempty"`
	Details   *string `json:"details,omitempty"`
	CreatedAt *string `json:"created_at,omitempty"`
}
