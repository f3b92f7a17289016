package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"moocdash/internal/logger"
	"moocdash/internal/table"
)

// LoadObserver получает итог каждой загрузки (метрики).
type LoadObserver func(name, result string)

// Store мемоизирует наборы на TTL. Инвалидация только по истечении срока,
// по Flush или при перезапуске процесса: файлы считаются неизменными.
type Store struct {
	src Source
	ttl time.Duration
	log *logger.Logger
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*Dataset

	observe LoadObserver
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithObserver(fn LoadObserver) Option {
	return func(s *Store) { s.observe = fn }
}

func NewStore(src Source, ttl time.Duration, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		src:     src,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		entries: make(map[string]*Dataset),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get возвращает набор из кеша или загружает его. Отсутствие источника
// не ошибка: NotFound=true и пустая таблица. Ошибка: только сбой чтения.
func (s *Store) Get(ctx context.Context, name string) (*Dataset, error) {
	spec, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.entries[name]; ok && s.now().Sub(d.LoadedAt) < s.ttl {
		return d, nil
	}

	d, err := s.load(ctx, spec)
	if err != nil {
		s.report(name, "error")
		return nil, err
	}
	s.entries[name] = d
	return d, nil
}

func (s *Store) load(ctx context.Context, spec Spec) (*Dataset, error) {
	t, err := s.src.Load(ctx, spec)
	switch {
	case errors.Is(err, ErrNotFound):
		s.log.Warn("dataset not found", "dataset", spec.Name, "error", err)
		s.report(spec.Name, "not_found")
		return &Dataset{
			Name:     spec.Name,
			Table:    table.Empty(spec.Name, spec.Required...),
			NotFound: true,
			LoadedAt: s.now(),
		}, nil
	case err != nil:
		s.log.Error("dataset load failed", "dataset", spec.Name, "error", err)
		return nil, fmt.Errorf("load %s: %w", spec.Name, err)
	}

	if spec.Name == Courses && t.Has("user_count") {
		t = t.SortBy("user_count", true)
	}

	d := &Dataset{
		Name:     spec.Name,
		Table:    t,
		Missing:  t.Missing(spec.Required...),
		LoadedAt: s.now(),
	}
	if len(d.Missing) > 0 {
		s.log.Warn("dataset is missing required columns", "dataset", spec.Name, "missing", d.Missing)
		s.report(spec.Name, "missing_columns")
	} else {
		s.report(spec.Name, "ok")
	}
	s.log.Debug("dataset loaded", "dataset", spec.Name, "rows", t.Len(), "cols", t.Width())
	return d, nil
}

func (s *Store) report(name, result string) {
	if s.observe != nil {
		s.observe(name, result)
	}
}

// Flush сбрасывает весь кеш (админское действие после загрузки нового файла).
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Dataset)
}

// Cached: имена наборов, лежащих в кеше, и время их загрузки.
func (s *Store) Cached() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.entries))
	for k, d := range s.entries {
		out[k] = d.LoadedAt
	}
	return out
}
