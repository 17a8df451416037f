package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/signalforge/equityedge/internal/backtest"
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/verdict"
)

// Memory is an in-process Repository backed by maps, guarded by a single
// mutex. It exists for tests and for running the core pipeline without a
// database dependency; it implements the same contract Pgx does.
type Memory struct {
	mu         sync.Mutex
	verdicts   map[string]verdict.Verdict
	backtests  map[string]backtest.Report
	order      []string // verdict IDs, insertion order
	btOrder    []string
}

// NewMemory builds an empty in-memory Repository.
func NewMemory() *Memory {
	return &Memory{
		verdicts:  map[string]verdict.Verdict{},
		backtests: map[string]backtest.Report{},
	}
}

func (m *Memory) SaveVerdict(_ context.Context, v verdict.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.verdicts[v.ID]; !exists {
		m.order = append(m.order, v.ID)
	}
	m.verdicts[v.ID] = v
	return nil
}

func (m *Memory) LoadVerdict(_ context.Context, id string) (verdict.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.verdicts[id]
	if !ok {
		return verdict.Verdict{}, errkind.New(errkind.BadInput, "persistence.LoadVerdict", errNotFound(id))
	}
	return v, nil
}

func (m *Memory) ListVerdicts(_ context.Context, filter ListFilter) ([]verdict.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]verdict.Verdict, 0, len(m.order))
	for _, id := range m.order {
		v := m.verdicts[id]
		if filter.Ticker != nil && v.Ticker != *filter.Ticker {
			continue
		}
		if filter.Status != nil && v.Status != *filter.Status {
			continue
		}
		if filter.CreatedAfter != nil && v.CreatedAt.Before(*filter.CreatedAfter) {
			continue
		}
		if filter.CreatedBefore != nil && v.CreatedAt.After(*filter.CreatedBefore) {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, to verdict.VerdictStatus, pnl *float64, notes string) (verdict.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.verdicts[id]
	if !ok {
		return verdict.Verdict{}, errkind.New(errkind.BadInput, "persistence.UpdateStatus", errNotFound(id))
	}

	if err := v.Transition(to, pnl, notes); err != nil {
		return verdict.Verdict{}, err
	}
	m.verdicts[id] = v
	return v, nil
}

func (m *Memory) SaveBacktest(_ context.Context, r backtest.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.backtests[r.ID]; !exists {
		m.btOrder = append(m.btOrder, r.ID)
	}
	m.backtests[r.ID] = r
	return nil
}

func (m *Memory) LoadBacktest(_ context.Context, id string) (backtest.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.backtests[id]
	if !ok {
		return backtest.Report{}, errkind.New(errkind.BadInput, "persistence.LoadBacktest", errNotFound(id))
	}
	return r, nil
}

func (m *Memory) ListBacktests(_ context.Context) ([]backtest.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backtest.Report, 0, len(m.btOrder))
	for _, id := range m.btOrder {
		out = append(out, m.backtests[id])
	}
	return out, nil
}

type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "persistence: no record with id " + e.id }

func errNotFound(id string) error { return notFoundError{id: id} }
