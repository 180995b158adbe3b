package models

// HistoryRequest binds GET /api/stocks/:symbol/history. Limit is a pointer so an
// explicit limit=0 is rejected instead of being replaced by the default.
type HistoryRequest struct {
	Symbol string `param:"symbol" validate:"required,alphanum"`
	Limit  *int   `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// HistoryResponse lists recorded prices oldest first.
type HistoryResponse struct {
	Symbol string    `json:"symbol"`
	Prices []float64 `json:"prices"`
	Trend  Trend     `json:"trend"`
}

// ScheduleRuleView is a schedule rule with weekday names.
type ScheduleRuleView struct {
	Days            []string `json:"days"`
	IntervalMinutes int      `json:"interval_minutes"`
}

// ScheduleView describes the report cadence as of now.
type ScheduleView struct {
	Today           string             `json:"today"`
	IntervalMinutes int                `json:"interval_minutes"`
	DefaultMinutes  int                `json:"default_minutes"`
	Rules           []ScheduleRuleView `json:"rules"`
	State           string             `json:"state"`
	Cycles          int64              `json:"cycles"`
}

// HealthView is the body of /healthz.
type HealthView struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// StreamMessage is one frame on the price websocket.
type StreamMessage struct {
	Type   string     `json:"type"`
	Tick   *PriceTick `json:"tick,omitempty"`
	Quotes []Quote    `json:"quotes,omitempty"`
}
