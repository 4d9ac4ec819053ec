package store

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MinCustomTextLen is the minimum length of submitted text, in characters.
	MinCustomTextLen = 100

	// MaxCustomNameLen is the maximum length of a custom text name.
	MaxCustomNameLen = 50
)

// ValidateCustomText checks raw against the submission rules.
func ValidateCustomText(raw string) error {
	if utf8.RuneCountInString(strings.TrimSpace(raw)) < MinCustomTextLen {
		return ErrTextTooShort
	}
	return nil
}

// ValidateCustomName checks a custom text name.
func ValidateCustomName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ErrNameEmpty
	case utf8.RuneCountInString(name) > MaxCustomNameLen:
		return ErrNameTooLong
	}
	return nil
}

func (m *Memory) SaveCustomText(ownerID int64, name, raw string) (string, error) {
	if err := ValidateCustomText(raw); err != nil {
		return "", err
	}
	if err := ValidateCustomName(name); err != nil {
		return "", err
	}

	elems := m.decomposer.Decompose(raw)
	if len(elems) == 0 {
		return "", ErrNoSentences
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ct := &CustomText{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		OwnerID:   ownerID,
		CreatedAt: m.now(),
		Raw:       raw,
		Elements:  elems,
	}
	m.texts[ct.ID] = ct
	m.textOrder = append(m.textOrder, ct.ID)
	return ct.ID, nil
}

func (m *Memory) CustomText(id string) (CustomText, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ct, ok := m.texts[id]
	if !ok {
		return CustomText{}, false
	}
	return *ct, true
}

func (m *Memory) ListCustomTexts() []CustomText {
	return m.filterTexts(func(*CustomText) bool { return true })
}

func (m *Memory) ListUserCustomTexts(ownerID int64) []CustomText {
	return m.filterTexts(func(ct *CustomText) bool { return ct.OwnerID == ownerID })
}

func (m *Memory) filterTexts(keep func(*CustomText) bool) []CustomText {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []CustomText
	for _, id := range m.textOrder {
		if ct := m.texts[id]; keep(ct) {
			out = append(out, *ct)
		}
	}
	return out
}

// SaveCustomTextStat records stat, replacing the user's previous entry for
// the same text.
func (m *Memory) SaveCustomTextStat(stat CustomTextStat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stat.RecordedAt.IsZero() {
		stat.RecordedAt = m.now()
	}
	byUser, ok := m.textStats[stat.TextID]
	if !ok {
		byUser = make(map[int64]CustomTextStat)
		m.textStats[stat.TextID] = byUser
	}
	byUser[stat.UserID] = stat
}

// CustomTextStats returns the ranking for a text, fastest first.
func (m *Memory) CustomTextStats(textID string) []CustomTextStat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CustomTextStat, 0, len(m.textStats[textID]))
	for _, st := range m.textStats[textID] {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WPM != out[j].WPM {
			return out[i].WPM > out[j].WPM
		}
		return out[i].Accuracy > out[j].Accuracy
	})
	return out
}
