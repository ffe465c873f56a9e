package model

import "time"

// Indicator — экологический показатель, зафиксированный в ходе активности.
type Indicator struct {
	ID            int64     `json:"id"`
	ActivityID    int64     `json:"activity_id"`
	ActivityTitle string    `json:"activity_title,omitempty"`
	Type          string    `json:"type"`
	Value         float64   `json:"value"`
	Unit          string    `json:"unit"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// IndicatorSummary — итог по типу показателя и единице измерения.
type IndicatorSummary struct {
	Type  string  `json:"type"`
	Unit  string  `json:"unit"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}
