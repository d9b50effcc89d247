// Package history stores one record per finished getaway game.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	engine "github.com/john-pickett/card-heist-sub000/engine"
)

// Record is the plain-data end-of-game entry.
type Record struct {
	GameID          uuid.UUID `json:"gameId"`
	UserID          uuid.UUID `json:"userId"`
	Username        string    `json:"username"`
	Seed            uint64    `json:"seed"`
	Won             bool      `json:"won"`
	Abandoned       bool      `json:"abandoned"`
	Phase           string    `json:"phase"`
	PlayerPosition  int       `json:"playerPosition"`
	PursuerPosition int       `json:"pursuerPosition"`
	Turns           int       `json:"turns"`
	Melds           int       `json:"melds"`
	Discards        int       `json:"discards"`
	PursuerMelds    int       `json:"pursuerMelds"`
	Reshuffles      int       `json:"reshuffles"`
	CardsDrawn      int       `json:"cardsDrawn"`
	DurationMs      int64     `json:"durationMs"`
	FinishedAt      time.Time `json:"finishedAt"`
}

// FromSummary fills the outcome fields of a record from an engine summary.
func FromSummary(gameID uuid.UUID, seed uint64, s engine.Summary, abandoned bool) Record {
	return Record{
		GameID:          gameID,
		Seed:            seed,
		Won:             s.Won,
		Abandoned:       abandoned,
		Phase:           s.Phase,
		PlayerPosition:  s.PlayerPosition,
		PursuerPosition: s.PursuerPosition,
		Turns:           s.Counters.Turns,
		Melds:           s.Counters.Melds,
		Discards:        s.Counters.Discards,
		PursuerMelds:    s.Counters.PursuerMelds,
		Reshuffles:      s.Counters.Reshuffles,
		CardsDrawn:      s.Counters.CardsDrawn,
	}
}

// Recorder receives finished games and lists recent ones.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// MemoryRecorder keeps records in process. It is used in tests and when no
// database is configured.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Recent returns up to limit records, newest first.
func (m *MemoryRecorder) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
