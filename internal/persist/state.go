package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"zenstudio/internal/library"
	"zenstudio/internal/story"
)

// StateKey names the persisted record.
const StateKey = "zen-studio-storage-v5"

// Theme is the editor colour scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// ParseTheme validates a theme name.
func ParseTheme(value string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(value))) {
	case ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	default:
		return "", fmt.Errorf("unknown theme %q (want dark or light)", value)
	}
}

// State is the persisted studio record.
type State struct {
	Story           story.Story    `json:"story"`
	Library         []library.File `json:"library"`
	ActiveSegmentID *string        `json:"activeSegmentId"`
	Theme           Theme          `json:"theme"`
	Credential      string         `json:"apiKey"`
}

// Active returns the selected segment id or "".
func (s State) Active() string {
	if s.ActiveSegmentID == nil {
		return ""
	}
	return *s.ActiveSegmentID
}

// Store loads and saves the state record.
type Store interface {
	// Load returns the stored state; ok is false when nothing was saved yet.
	Load(ctx context.Context) (state State, ok bool, err error)
	Save(ctx context.Context, state State) error
	Close(ctx context.Context) error
}

// Encode serializes state.
func Encode(state State) ([]byte, error) {
	if state.Library == nil {
		state.Library = []library.File{}
	}
	if state.Theme == "" {
		state.Theme = ThemeDark
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode parses a stored record, filling defaults for absent fields.
func Decode(data []byte) (State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	if state.Story.Segments == nil {
		state.Story.Segments = map[string]story.Segment{}
	}
	if state.Story.Order == nil {
		state.Story.Order = []string{}
	}
	if state.Story.Variables == nil {
		state.Story.Variables = map[string]story.Value{}
	}
	if state.Library == nil {
		state.Library = []library.File{}
	}
	if state.Theme == "" {
		state.Theme = ThemeDark
	}
	return state, nil
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemory returns an empty memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements Store.
func (m *Memory) Load(context.Context) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return State{}, false, nil
	}
	state, err := Decode(m.data)
	if err != nil {
		return State{}, false, err
	}
	return state, true, nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

// Close implements Store.
func (m *Memory) Close(context.Context) error {
	return nil
}

// Saves returns how many times Save succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
