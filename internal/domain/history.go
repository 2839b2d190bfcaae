package domain

import "time"

// HistoryItem is an immutable record of one completed generation. Items are
// appended on completion, never mutated, and evicted oldest-first once the log
// reaches capacity. Every item must be replayable back into a ModeState.
type HistoryItem struct {
	ID        string     `json:"id"`
	Mode      Mode       `json:"mode"`
	Prompt    string     `json:"prompt,omitempty"`
	SourceURL string     `json:"sourceUrl,omitempty"`
	Outputs   []AssetRef `json:"outputs,omitempty"`
	Kind      AssetKind  `json:"kind"`
	Secondary string     `json:"secondary,omitempty"`
	Recipe    *Recipe    `json:"recipe,omitempty"`
	Article   *Article   `json:"article,omitempty"`
	CoverURI  string     `json:"coverUri,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
