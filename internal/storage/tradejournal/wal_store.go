// Package tradejournal keeps an append-only history of applied trades.
package tradejournal

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

const (
	defaultJournalDir   = "./data/journal"
	journalSegmentLimit = 1000
	journalMaxSegments  = 100
	tradeKeyPrefix      = "trade_"
)

// WALStore persists trade results in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create trade journal dir")
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "trades_",
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

func tradeKey(userID int64) string {
	return fmt.Sprintf("%s%d_", tradeKeyPrefix, userID)
}

// Append writes a trade result to the journal.
func (s *WALStore) Append(result domain.TradeResult) error {
	if s == nil || s.wal == nil {
		return errors.New("trade journal is not initialized")
	}
	if result.ID == "" {
		return errors.New("trade result id is required")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "marshal trade result")
	}

	key := tradeKey(result.UserID) + result.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// History returns all trades of a user in the order they were applied.
func (s *WALStore) History(userID int64) ([]domain.TradeResult, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := tradeKey(userID)
	current := s.wal.CurrentIndex()
	trades := make([]domain.TradeResult, 0)
	for idx := uint64(1); idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		var result domain.TradeResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, errors.Wrap(err, "decode trade result")
		}
		trades = append(trades, result)
	}

	return trades, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("trade journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
