package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eomgitae/care-console/internal/models"
)

// MemoryStore keeps consultations in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	next   int64
	nextFC int64
	rows   map[int64]Consultation
	now    func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]Consultation), now: time.Now}
}

func (m *MemoryStore) SaveConsultation(ctx context.Context, c Consultation) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := Validate(c); err != nil {
		return 0, fmt.Errorf("save consultation: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	c.No = m.next
	c.CreatedAt = m.now().UTC()
	c.Breakdown = models.ComputeBreakdown(c.Outcome().Feedback)
	checks := make([]FactCheck, len(c.FactChecks))
	for i, fc := range c.FactChecks {
		m.nextFC++
		fc.ID = m.nextFC
		fc.ConsultationNo = c.No
		checks[i] = fc
	}
	c.FactChecks = checks
	m.rows[c.No] = c
	return c.No, nil
}

func (m *MemoryStore) GetConsultation(ctx context.Context, no int64) (Consultation, error) {
	if err := ctx.Err(); err != nil {
		return Consultation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[no]
	if !ok {
		return Consultation{}, fmt.Errorf("consultation %d: %w", no, ErrNotFound)
	}
	return clone(c), nil
}

// ListConsultations returns newest first.
func (m *MemoryStore) ListConsultations(ctx context.Context, f Filter) ([]Consultation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Consultation
	for _, c := range m.rows {
		if matches(c, f) {
			c = clone(c)
			c.FactChecks = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].No > out[j].No })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) ListFactChecks(ctx context.Context, consultationNo int64) ([]FactCheck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[consultationNo]
	if !ok {
		return nil, fmt.Errorf("consultation %d: %w", consultationNo, ErrNotFound)
	}
	return append([]FactCheck(nil), c.FactChecks...), nil
}

func (m *MemoryStore) DeleteConsultation(ctx context.Context, no int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[no]; !ok {
		return fmt.Errorf("consultation %d: %w", no, ErrNotFound)
	}
	delete(m.rows, no)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func clone(c Consultation) Consultation {
	c.Messages = append([]models.Message(nil), c.Messages...)
	c.FactChecks = append([]FactCheck(nil), c.FactChecks...)
	return c
}
