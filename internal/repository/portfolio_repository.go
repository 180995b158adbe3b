package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"MarketSim/internal/domain/models"
	"MarketSim/internal/domain/repository"
	"MarketSim/pkg/cache"
)

const portfolioKeyPrefix = "portfolio"

// FilePortfolioStore keeps every portfolio in one JSON document and rewrites it
// atomically on each save.
type FilePortfolioStore struct {
	mu    sync.Mutex
	path  string
	byUID map[string]models.Portfolio
}

// NewFilePortfolioStore loads path if it exists. A missing file starts empty.
func NewFilePortfolioStore(path string) (repository.PortfolioStore, error) {
	s := &FilePortfolioStore{path: path, byUID: map[string]models.Portfolio{}}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read portfolios: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.byUID); err != nil {
		return nil, fmt.Errorf("decode portfolios %s: %w", path, err)
	}
	return s, nil
}

func (s *FilePortfolioStore) Load(_ context.Context, userID string) (models.Portfolio, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byUID[userID]
	if !ok {
		return models.Portfolio{}, false, nil
	}
	return p.Clone(), true, nil
}

func (s *FilePortfolioStore) Save(_ context.Context, userID string, p models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.byUID[userID]
	s.byUID[userID] = p.Clone()
	if err := s.flush(); err != nil {
		if had {
			s.byUID[userID] = prev
		} else {
			delete(s.byUID, userID)
		}
		return err
	}
	return nil
}

func (s *FilePortfolioStore) flush() error {
	data, err := json.MarshalIndent(s.byUID, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolios: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create portfolio dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".portfolios-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write portfolios: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close portfolios: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace portfolios: %w", err)
	}
	return nil
}

func (s *FilePortfolioStore) Close() error { return nil }

// CachePortfolioStore persists portfolios in a cache.Service (memory, redis or layered).
type CachePortfolioStore struct {
	c cache.Service
}

func NewCachePortfolioStore(c cache.Service) repository.PortfolioStore {
	return &CachePortfolioStore{c: c}
}

func (s *CachePortfolioStore) Load(ctx context.Context, userID string) (models.Portfolio, bool, error) {
	var p models.Portfolio
	if err := s.c.Get(ctx, cache.GenerateKey(portfolioKeyPrefix, userID), &p); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return models.Portfolio{}, false, nil
		}
		return models.Portfolio{}, false, fmt.Errorf("cache get portfolio: %w", err)
	}
	return p, true, nil
}

func (s *CachePortfolioStore) Save(ctx context.Context, userID string, p models.Portfolio) error {
	if err := s.c.Set(ctx, cache.GenerateKey(portfolioKeyPrefix, userID), p, 0); err != nil {
		return fmt.Errorf("cache set portfolio: %w", err)
	}
	return nil
}

func (s *CachePortfolioStore) Close() error { return s.c.Close() }
