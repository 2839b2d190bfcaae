// Package history keeps the bounded, persisted log of completed generations.
// Items are immutable once appended; the log is written to the durable store
// on every change and read back once at session start.
package history

import (
	"context"
	"encoding/json"
	"sync"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/storage"
)

const kvKeyHistory = "history"

// Log is the append-only generation history.
type Log struct {
	mu       sync.Mutex
	kv       *storage.KV
	capacity int
	items    []domain.HistoryItem
	logger   *infra.Logger
}

// NewLog returns an empty log bound to the durable store.
func NewLog(kv *storage.KV, capacity int, logger *infra.Logger) *Log {
	if capacity <= 0 {
		capacity = 50
	}
	return &Log{kv: kv, capacity: capacity, logger: logger}
}

// Load reads the persisted log. A missing or corrupt store yields an empty
// log; corruption is never surfaced as a session-fatal error.
func (l *Log) Load(ctx context.Context) {
	value, ok, err := l.kv.Get(ctx, kvKeyHistory)
	if err != nil {
		l.logger.Warn().Err(err).Msg("history: load failed; starting empty")
		return
	}
	if !ok {
		return
	}
	var items []domain.HistoryItem
	if err := json.Unmarshal(value, &items); err != nil {
		l.logger.Warn().Err(err).Msg("history: stored log is corrupt; starting empty")
		return
	}
	l.mu.Lock()
	l.items = items
	if len(l.items) > l.capacity {
		l.items = l.items[:l.capacity]
	}
	l.mu.Unlock()
}

// Append prepends the item, truncates to capacity (oldest-first eviction) and
// persists before returning.
func (l *Log) Append(ctx context.Context, item domain.HistoryItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append([]domain.HistoryItem{item}, l.items...)
	if len(l.items) > l.capacity {
		l.items = l.items[:l.capacity]
	}
	return l.persistLocked(ctx)
}

// Items returns a copy of the log, newest first.
func (l *Log) Items() []domain.HistoryItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.HistoryItem(nil), l.items...)
}

// Get returns the item with the given id.
func (l *Log) Get(id string) (domain.HistoryItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range l.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.HistoryItem{}, false
}

// Clear empties the log and purges the durable copy. Confirmation is the
// caller's responsibility.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	return l.kv.Delete(ctx, kvKeyHistory)
}

func (l *Log) persistLocked(ctx context.Context) error {
	value, err := json.Marshal(l.items)
	if err != nil {
		return err
	}
	return l.kv.Put(ctx, kvKeyHistory, value)
}

// SelectForReplay reconstructs the ModeState a history item was produced
// from. It is total over every item Append has ever accepted: unknown or
// partial items still yield a usable state. The contextual suggestion and
// transient flags are deliberately absent; they are ephemeral.
func SelectForReplay(item domain.HistoryItem) domain.ModeState {
	state := domain.ModeState{
		Prompt:     item.Prompt,
		SourceURL:  item.SourceURL,
		Outputs:    append([]domain.AssetRef(nil), item.Outputs...),
		OutputKind: item.Kind,
		Recipe:     item.Recipe,
		Article:    item.Article,
	}

	switch item.Mode {
	case domain.ModeImage:
		state.Translation = item.Secondary
	case domain.ModeVideo, domain.ModeSpeech, domain.ModeProductShot:
		// Binary outputs only; nothing beyond the common fields.
	case domain.ModeRecipe, domain.ModeRecipeFromLink, domain.ModeRecipeCard:
		// Recipe field already carried over.
	case domain.ModeStructuredArticle:
		// Article field already carried over.
	}
	return state
}
