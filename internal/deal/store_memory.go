package deal

import (
	"context"
	"sort"
	"sync"

	"dealdesk/internal/advisory"
	"dealdesk/internal/intake"
	"dealdesk/internal/routing"
	"dealdesk/internal/rules"
)

// InMemoryStore keeps deals and overrides in process memory. It backs unit
// tests and datastore-less deployments; semantics match the postgres store.
type InMemoryStore struct {
	mu         sync.RWMutex
	deals      map[string]*Record
	order      []string // insertion order of deal ids
	overrides  []Override
	nextOverID int64
}

// NewInMemoryStore returns an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{deals: make(map[string]*Record), nextOverID: 1}
}

func (s *InMemoryStore) Insert(_ context.Context, deal intake.ValidatedDeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals[deal.ID] = &Record{Deal: deal, Status: StatusValidated}
	s.order = append(s.order, deal.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, dealID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.deals[dealID]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyRecord(rec)
	return &out, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]Record, error) {
	return s.list(func(*Record) bool { return true })
}

func (s *InMemoryStore) ListProcessed(ctx context.Context) ([]Record, error) {
	return s.list(func(r *Record) bool { return r.Status == StatusProcessed })
}

func (s *InMemoryStore) list(keep func(*Record) bool) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		rec := s.deals[id]
		if keep(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	// Newest first, matching the postgres ORDER BY created_at DESC.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deal.CreatedAt.After(out[j].Deal.CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) AttachDecision(_ context.Context, dealID string, evaluation rules.EvaluationResult, decision routing.Decision, adv *advisory.ClauseAdvisory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.deals[dealID]
	if !ok {
		return ErrNotFound
	}
	evalCopy := copyEvaluation(evaluation)
	decCopy := copyDecision(decision)
	rec.Evaluation = &evalCopy
	rec.Decision = &decCopy
	rec.Advisory = copyAdvisory(adv)
	rec.Status = StatusProcessed
	return nil
}

func (s *InMemoryStore) RecordOverride(_ context.Context, ov Override) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.deals[ov.DealID]
	if !ok {
		return 0, ErrNotFound
	}
	ov.ID = s.nextOverID
	s.nextOverID++
	ov.OriginalDecision = copyDecision(ov.OriginalDecision)
	s.overrides = append(s.overrides, ov)
	rec.Status = StatusOverridden
	return ov.ID, nil
}

func (s *InMemoryStore) Overrides(_ context.Context) ([]Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Override, 0, len(s.overrides))
	for i := len(s.overrides) - 1; i >= 0; i-- {
		out = append(out, copyOverride(s.overrides[i]))
	}
	return out, nil
}

func (s *InMemoryStore) OverridesForDeal(_ context.Context, dealID string) ([]Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Override
	for i := len(s.overrides) - 1; i >= 0; i-- {
		if s.overrides[i].DealID == dealID {
			out = append(out, copyOverride(s.overrides[i]))
		}
	}
	return out, nil
}

func (s *InMemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals = make(map[string]*Record)
	s.order = nil
	s.overrides = nil
	s.nextOverID = 1
	return nil
}

// Deep copies keep callers from reaching into shared state; the store hands
// out values with the same isolation a database row scan would.

func copyRecord(rec *Record) Record {
	out := Record{Deal: rec.Deal, Status: rec.Status}
	if rec.Evaluation != nil {
		ev := copyEvaluation(*rec.Evaluation)
		out.Evaluation = &ev
	}
	if rec.Decision != nil {
		dec := copyDecision(*rec.Decision)
		out.Decision = &dec
	}
	out.Advisory = copyAdvisory(rec.Advisory)
	return out
}

func copyEvaluation(ev rules.EvaluationResult) rules.EvaluationResult {
	out := ev
	out.Triggers = copySlice(ev.Triggers)
	return out
}

func copyDecision(dec routing.Decision) routing.Decision {
	out := dec
	out.EscalationPath = copySlice(dec.EscalationPath)
	out.RuleTriggers = copySlice(dec.RuleTriggers)
	return out
}

func copyAdvisory(adv *advisory.ClauseAdvisory) *advisory.ClauseAdvisory {
	if adv == nil {
		return nil
	}
	out := *adv
	out.Categories = copySlice(adv.Categories)
	return &out
}

// copySlice preserves nilness and emptiness, so copied values stay
// deep-equal to the originals.
func copySlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func copyOverride(ov Override) Override {
	out := ov
	out.OriginalDecision = copyDecision(ov.OriginalDecision)
	return out
}
