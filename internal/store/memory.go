package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shirooni/typebot/internal/prompt"
)

// Memory is the process-local implementation of Repos. Nothing survives
// a restart.
type Memory struct {
	mu         sync.RWMutex
	users      map[int64]*UserProfile
	sessions   map[int64]*Session
	tests      map[int64]*ActiveTest
	texts      map[string]*CustomText
	textOrder  []string
	textStats  map[string]map[int64]CustomTextStat
	decomposer Decomposer
	now        func() time.Time
}

// Decomposer turns raw custom text into prompt elements.
type Decomposer interface {
	Decompose(raw string) []prompt.Element
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory returns an empty store. Custom texts are decomposed with d.
func NewMemory(d Decomposer, opts ...MemoryOption) *Memory {
	m := &Memory{
		users:      make(map[int64]*UserProfile),
		sessions:   make(map[int64]*Session),
		tests:      make(map[int64]*ActiveTest),
		texts:      make(map[string]*CustomText),
		textStats:  make(map[string]map[int64]CustomTextStat),
		decomposer: d,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Repos = (*Memory)(nil)

func (m *Memory) Upsert(id int64, patch UserPatch) UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertLocked(id, patch)
}

func (m *Memory) upsertLocked(id int64, patch UserPatch) UserProfile {
	u, ok := m.users[id]
	if !ok {
		u = &UserProfile{
			ID:          id,
			DisplayName: fmt.Sprintf("User_%d", id),
			Stats:       make(map[string]ModeStats),
			CreatedAt:   m.now(),
		}
		m.users[id] = u
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	if patch.SelectedRank != nil {
		u.SelectedRank = *patch.SelectedRank
	}
	return copyProfile(u)
}

// nameOnly patches the display name when one is known.
func nameOnly(displayName string) UserPatch {
	if displayName == "" {
		return UserPatch{}
	}
	return UserPatch{DisplayName: &displayName}
}

func (m *Memory) Get(id int64) (UserProfile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return UserProfile{}, false
	}
	return copyProfile(u), true
}

func (m *Memory) List() []UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UserProfile, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, copyProfile(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) SaveStats(id int64, displayName string, kind Kind, stats ModeStats) UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upsertLocked(id, nameOnly(displayName))
	u := m.users[id]

	key := kind.StatsKey()
	prev := u.Stats[key]
	stats.BestWPM = max(stats.BestWPM, stats.WPM, prev.BestWPM)
	stats.BestAccuracy = max(stats.BestAccuracy, stats.Accuracy, prev.BestAccuracy)
	stats.UpdatedAt = m.now()
	u.Stats[key] = stats

	return copyProfile(u)
}

func (m *Memory) Leaderboard() []LeaderboardEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []LeaderboardEntry
	for _, u := range m.users {
		if len(u.Stats) == 0 {
			continue
		}
		speed := u.Stats[string(KindSpeed)]
		precision := u.Stats[string(KindPrecision)]
		out = append(out, LeaderboardEntry{
			UserID:       u.ID,
			DisplayName:  u.DisplayName,
			BestWPM:      max(speed.BestWPM, precision.WPM),
			BestAccuracy: max(precision.BestAccuracy, speed.Accuracy),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BestWPM != out[j].BestWPM {
			return out[i].BestWPM > out[j].BestWPM
		}
		if out[i].BestAccuracy != out[j].BestAccuracy {
			return out[i].BestAccuracy > out[j].BestAccuracy
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func copyProfile(u *UserProfile) UserProfile {
	c := *u
	c.Stats = make(map[string]ModeStats, len(u.Stats))
	for k, v := range u.Stats {
		c.Stats[k] = v
	}
	return c
}

func (m *Memory) StartTest(id int64, kind Kind, prompts []prompt.Element, displayName string, opts ...TestOption) (*ActiveTest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.tests[id]; ok {
		if !existing.Terminal() {
			return nil, ErrTestInProgress
		}
		existing.StopCountdown()
	}

	m.upsertLocked(id, nameOnly(displayName))

	now := m.now()
	t := &ActiveTest{
		ID:          uuid.NewString(),
		UserID:      id,
		ChatID:      id,
		Kind:        kind,
		Prompts:     append([]prompt.Element(nil), prompts...),
		StartedAt:   now,
		DisplayName: displayName,
	}
	for _, opt := range opts {
		opt(t)
	}
	m.tests[id] = t

	if s, ok := m.sessions[id]; ok {
		s.setActiveTest(t.ID)
	}
	return t, nil
}

func (m *Memory) ActiveTest(id int64) (*ActiveTest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	return t, ok
}

func (m *Memory) UpdateTestResult(id int64, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok {
		return ErrNoActiveTest
	}
	t.Results = append(t.Results, r)
	if r.Success {
		t.SuccessCount++
	}
	return nil
}

func (m *Memory) EndTest(id int64) (*ActiveTest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok {
		return nil, false
	}
	t.StopCountdown()
	if t.Terminal() {
		m.removeLocked(id)
	}
	return t, true
}

func (m *Memory) RemoveTest(id int64) (*ActiveTest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok {
		return nil, false
	}
	t.StopCountdown()
	m.removeLocked(id)
	return t, true
}

func (m *Memory) removeLocked(id int64) {
	delete(m.tests, id)
	if s, ok := m.sessions[id]; ok {
		s.setActiveTest("")
	}
}
