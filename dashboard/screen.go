package main

import (
	"sync"
)

// Alert is a notification currently on screen
type Alert struct {
	ID      int
	Message string
	Kind    Severity
}

// ButtonState is the rendered state of one button
type ButtonState struct {
	Label    string
	Disabled bool
}

// ScreenState is a copy of everything the screen shows
type ScreenState struct {
	CurrentTime    string
	IndicatorClass string
	StatusText     string
	Buttons        map[string]ButtonState
	Banners        []Alert
	Modal          *Alert
}

// Screen holds display state written by the controller and read by the
// terminal view. Every mutation calls the change hook outside the lock.
type Screen struct {
	mu       sync.RWMutex
	state    ScreenState
	nextID   int
	onChange func()
}

// NewScreen creates a screen with both action buttons in their idle state
func NewScreen(msgs Messages) *Screen {
	return &Screen{
		state: ScreenState{
			IndicatorClass: ClassDisconnected,
			Buttons: map[string]ButtonState{
				ConnectButtonID:    {Label: connectGlyph + " " + msgs.ConnectLabel},
				DisconnectButtonID: {Label: disconnectGlyph + " " + msgs.DisconnectLabel},
			},
		},
	}
}

// SetOnChange registers the hook called after each mutation
func (s *Screen) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Screen) update(fn func(st *ScreenState)) {
	s.mu.Lock()
	fn(&s.state)
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Snapshot returns a copy of the current state
func (s *Screen) Snapshot() ScreenState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Buttons = make(map[string]ButtonState, len(s.state.Buttons))
	for id, b := range s.state.Buttons {
		st.Buttons[id] = b
	}
	st.Banners = append([]Alert(nil), s.state.Banners...)
	if s.state.Modal != nil {
		modal := *s.state.Modal
		st.Modal = &modal
	}
	return st
}

// ButtonDisabled reports whether the button exists and is disabled
func (s *Screen) ButtonDisabled(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.Buttons[id]
	return ok && b.Disabled
}

// Elements binds the controller's element set to this screen
func (s *Screen) Elements() Elements {
	return Elements{
		CurrentTime: TextFunc(func(text string) {
			s.update(func(st *ScreenState) { st.CurrentTime = text })
		}),
		StatusIndicator: ClassFunc(func(class string) {
			s.update(func(st *ScreenState) { st.IndicatorClass = class })
		}),
		StatusText: TextFunc(func(text string) {
			s.update(func(st *ScreenState) { st.StatusText = text })
		}),
		ConnectButton:    &screenButton{screen: s, id: ConnectButtonID},
		DisconnectButton: &screenButton{screen: s, id: DisconnectButtonID},
	}
}

type screenButton struct {
	screen *Screen
	id     string
}

func (b *screenButton) SetDisabled(disabled bool) {
	b.screen.update(func(st *ScreenState) {
		state := st.Buttons[b.id]
		state.Disabled = disabled
		st.Buttons[b.id] = state
	})
}

func (b *screenButton) SetLabel(label string) {
	b.screen.update(func(st *ScreenState) {
		state := st.Buttons[b.id]
		state.Label = label
		st.Buttons[b.id] = state
	})
}

// ShowBanner implements BannerSurface. Newest banners are listed first.
func (s *Screen) ShowBanner(message string, kind Severity) int {
	var id int
	s.update(func(st *ScreenState) {
		s.nextID++
		id = s.nextID
		st.Banners = append([]Alert{{ID: id, Message: message, Kind: kind}}, st.Banners...)
	})
	return id
}

// DismissBanner implements BannerSurface. Unknown ids are ignored.
func (s *Screen) DismissBanner(id int) {
	s.update(func(st *ScreenState) {
		for i, a := range st.Banners {
			if a.ID == id {
				st.Banners = append(st.Banners[:i:i], st.Banners[i+1:]...)
				return
			}
		}
	})
}

// DismissNewestBanner closes the top banner, as the close button would
func (s *Screen) DismissNewestBanner() {
	s.update(func(st *ScreenState) {
		if len(st.Banners) > 0 {
			st.Banners = st.Banners[1:]
		}
	})
}

// ShowModal implements ModalSurface, replacing any open modal
func (s *Screen) ShowModal(message string, kind Severity) int {
	var id int
	s.update(func(st *ScreenState) {
		s.nextID++
		id = s.nextID
		st.Modal = &Alert{ID: id, Message: message, Kind: kind}
	})
	return id
}

// HideModal implements ModalSurface. It only closes the modal opened as id,
// so a stale timer cannot close a newer message.
func (s *Screen) HideModal(id int) {
	s.update(func(st *ScreenState) {
		if st.Modal != nil && st.Modal.ID == id {
			st.Modal = nil
		}
	})
}
