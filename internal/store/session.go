package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// EntryState is the custom-text submission sub-state of a session.
type EntryState string

const (
	EntryIdle         EntryState = "idle"
	EntryAwaitingText EntryState = "awaiting_text"
	EntryAwaitingName EntryState = "awaiting_name"
)

const (
	eventBegin  = "begin"
	eventText   = "text"
	eventFinish = "finish"
	eventReset  = "reset"
)

// Session is per-user conversational state. Having a session does not
// imply having an active test.
type Session struct {
	mu           sync.Mutex
	userID       int64
	lastActivity time.Time
	activeTestID string
	pendingText  string
	entry        *fsm.FSM
}

func newSession(userID int64, now time.Time) *Session {
	return &Session{
		userID:       userID,
		lastActivity: now,
		entry: fsm.NewFSM(
			string(EntryIdle),
			fsm.Events{
				{Name: eventBegin, Src: []string{string(EntryIdle), string(EntryAwaitingText), string(EntryAwaitingName)}, Dst: string(EntryAwaitingText)},
				{Name: eventText, Src: []string{string(EntryAwaitingText)}, Dst: string(EntryAwaitingName)},
				{Name: eventFinish, Src: []string{string(EntryAwaitingName)}, Dst: string(EntryIdle)},
				{Name: eventReset, Src: []string{string(EntryAwaitingText), string(EntryAwaitingName)}, Dst: string(EntryIdle)},
			},
			fsm.Callbacks{},
		),
	}
}

// UserID returns the owner of the session.
func (s *Session) UserID() int64 { return s.userID }

// LastActivity returns when the session was last touched.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// ActiveTestID returns the id of the user's live test, or "".
func (s *Session) ActiveTestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTestID
}

func (s *Session) setActiveTest(id string) {
	s.mu.Lock()
	s.activeTestID = id
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActivity = now
	s.mu.Unlock()
}

// Entry returns the current custom-text sub-state.
func (s *Session) Entry() EntryState {
	return EntryState(s.entry.Current())
}

// PendingText returns the text buffered between the two submission steps.
func (s *Session) PendingText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingText
}

// BeginEntry starts (or restarts) a custom-text submission.
func (s *Session) BeginEntry(ctx context.Context) error {
	s.mu.Lock()
	s.pendingText = ""
	s.mu.Unlock()
	return fire(ctx, s.entry, eventBegin)
}

// AcceptText buffers raw and moves on to asking for a name. The caller
// validates raw first; a rejected text leaves the sub-state unchanged.
func (s *Session) AcceptText(ctx context.Context, raw string) error {
	if err := fire(ctx, s.entry, eventText); err != nil {
		return err
	}
	s.mu.Lock()
	s.pendingText = raw
	s.mu.Unlock()
	return nil
}

// FinishEntry returns the buffered text and goes back to idle.
func (s *Session) FinishEntry(ctx context.Context) (string, error) {
	if err := fire(ctx, s.entry, eventFinish); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw := s.pendingText
	s.pendingText = ""
	return raw, nil
}

// ResetEntry abandons any submission in progress.
func (s *Session) ResetEntry(ctx context.Context) {
	s.mu.Lock()
	s.pendingText = ""
	s.mu.Unlock()
	_ = fire(ctx, s.entry, eventReset)
}

func fire(ctx context.Context, f *fsm.FSM, event string) error {
	err := f.Event(ctx, event)
	var noTransition fsm.NoTransitionError
	if err != nil && !errors.As(err, &noTransition) {
		return err
	}
	return nil
}

// Session returns the session for id, creating it on first use.
func (m *Memory) Session(id int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[id]
	if !ok {
		s = newSession(id, now)
		if t, ok := m.tests[id]; ok {
			s.activeTestID = t.ID
		}
		m.sessions[id] = s
	}
	s.touch(now)
	return s
}

// SweepSessions removes sessions idle longer than ttl, keeping any whose
// user still has an active test.
func (m *Memory) SweepSessions(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	removed := 0
	for id, s := range m.sessions {
		if _, busy := m.tests[id]; busy {
			continue
		}
		if s.LastActivity().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
