package model

// Action is the outcome of an investment decision.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// FactorScore is the contribution of one scoring rule.
type FactorScore struct {
	Name       string  `json:"name"`
	Points     int     `json:"points"`
	MaxPoints  int     `json:"max_points"`
	Present    bool    `json:"present"`
	Input      float64 `json:"input"`
	Commentary string  `json:"commentary,omitempty"`
}

// InvestmentDecision summarizes buy and sell pressure of a snapshot.
type InvestmentDecision struct {
	Action     Action   `json:"action"`
	Confidence int      `json:"confidence"`
	BuyScore   int      `json:"buy_score"`
	SellScore  int      `json:"sell_score"`
	Reasons    []string `json:"reasons"`
}

// PriceLevels holds targets, entries and a stop for a BUY decision.
type PriceLevels struct {
	ProfitTargets []float64 `json:"profit_targets"`
	EntryOptimal  float64   `json:"entry_optimal"`
	EntryAccept   float64   `json:"entry_acceptable"`
	StopLoss      float64   `json:"stop_loss"`
}
