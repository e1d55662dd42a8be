package automation

import (
	"sync"

	"gamehub/automation-agent/internal/models"
)

// MacroStore holds the current macro: the last one recorded or loaded
type MacroStore struct {
	mu     sync.RWMutex
	macro  models.Macro
	status *StatusRegistry
}

func NewMacroStore(status *StatusRegistry) *MacroStore {
	return &MacroStore{macro: models.Macro{}, status: status}
}

// Get returns a copy of the current macro
func (s *MacroStore) Get() models.Macro {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.macro.Clone()
}

// Len is the number of events in the current macro
func (s *MacroStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.macro)
}

// Set replaces the current macro and publishes macro_length. extra runs in
// the same status update so pollers never see a stale length.
func (s *MacroStore) Set(macro models.Macro, extra func(*models.AutomationStatus)) {
	macro = macro.Clone()
	if macro == nil {
		macro = models.Macro{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.macro = macro

	s.status.Update(func(st *models.AutomationStatus) {
		st.MacroLength = len(macro)
		if extra != nil {
			extra(st)
		}
	})
}
