package domain

import "time"

// IntentAction is the instruction handed to the execution engine.
type IntentAction string

const (
	ActionOpenLong  IntentAction = "open_long"
	ActionOpenShort IntentAction = "open_short"
	ActionAddLayer  IntentAction = "add_layer"
	ActionClose     IntentAction = "close"
)

// TradeIntent is emitted by a strategy for each decision. StopLoss and
// TakeProfit are set for opens and layers and nil for closes.
type TradeIntent struct {
	ID         string       `json:"id"` // UUID
	RunID      string       `json:"run_id"`
	Strategy   string       `json:"strategy"`
	Symbol     string       `json:"symbol"`
	Action     IntentAction `json:"action"`
	Side       Side         `json:"side"`
	Size       float64      `json:"size"`
	Price      float64      `json:"price"` // bar close the decision was taken on
	StopLoss   *float64     `json:"stop_loss,omitempty"`
	TakeProfit *float64     `json:"take_profit,omitempty"`
	Layer      int          `json:"layer"`
	Reason     string       `json:"reason,omitempty"`
	BarTime    time.Time    `json:"bar_time"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Run records one invocation of the decision engine.
type Run struct {
	ID         string
	Mode       string
	Symbols    []string
	Strategies []string
	StartedAt  time.Time
	FinishedAt *time.Time
	Bars       int64
	Intents    int64
	Error      string
}
