// Package shell models the UI chrome as an explicit state machine: the tab
// bar with its panels, the modals, and the auth button projection. The
// browser renders whatever this state says; no active/inactive flags live
// anywhere else.
package shell

import (
	"sync"

	"resumelens/internal/credstore"
)

// Panel identifiers derive from tab identifiers by a fixed naming
// convention.
const panelPrefix = "panel-"

// Known tab and modal identifiers.
const (
	TabMatch  = "match"
	TabATS    = "ats"
	AuthModal = "auth-modal"

	// DefaultTab is the markup-level default: the match panel is the one
	// marked active on load.
	DefaultTab = TabMatch
)

// TabSet keeps the tab-active and panel-active sets in 1:1 sync; both are
// only ever mutated by Switch.
type TabSet struct {
	tabs      []string
	panels    []string
	activeTab string
	// activePanel may be empty when no panel matches the derived name
	activePanel string
}

// NewTabSet builds a tab set with the given tabs and panels and activates
// the initial tab.
func NewTabSet(tabs, panels []string, initial string) *TabSet {
	ts := &TabSet{tabs: tabs, panels: panels}
	ts.Switch(initial)
	return ts
}

// Switch deactivates every tab and panel, then activates the named tab and
// the panel derived from it. A tab id with no matching panel leaves no
// panel active; that is not an error.
func (ts *TabSet) Switch(tabID string) {
	ts.activeTab = ""
	ts.activePanel = ""

	for _, t := range ts.tabs {
		if t == tabID {
			ts.activeTab = tabID
			break
		}
	}
	if ts.activeTab == "" {
		return
	}

	derived := panelPrefix + tabID
	for _, p := range ts.panels {
		if p == derived {
			ts.activePanel = derived
			break
		}
	}
}

// ActiveTab returns the active tab id, or "" when none is active.
func (ts *TabSet) ActiveTab() string { return ts.activeTab }

// ActivePanel returns the active panel id, or "" when none is active.
func (ts *TabSet) ActivePanel() string { return ts.activePanel }

// Tabs returns the tab ids in order.
func (ts *TabSet) Tabs() []string { return ts.tabs }

// Modal is a single modal instance. The visibility flag, the "open" marker
// and the aria-hidden attribute always agree; Open and Close move all three
// in lockstep.
type Modal struct {
	visible    bool
	openMarker bool
	ariaHidden string
}

// NewModal returns a closed modal.
func NewModal() *Modal {
	return &Modal{ariaHidden: "true"}
}

// Open makes the modal visible.
func (m *Modal) Open() {
	m.visible = true
	m.openMarker = true
	m.ariaHidden = "false"
}

// Close hides the modal.
func (m *Modal) Close() {
	m.visible = false
	m.openMarker = false
	m.ariaHidden = "true"
}

// Visible reports the visibility flag.
func (m *Modal) Visible() bool { return m.visible }

// OpenMarker reports the "open" attribute marker.
func (m *Modal) OpenMarker() bool { return m.openMarker }

// AriaHidden reports the aria-hidden attribute value.
func (m *Modal) AriaHidden() string { return m.ariaHidden }

// AuthAction is what activating the auth button does in each state.
type AuthAction string

const (
	ActionOpenAuthModal AuthAction = "open-auth-modal"
	ActionLogout        AuthAction = "logout"
)

// AuthButton is the derived auth-button state. It is never stored; it is a
// pure function of the current session.
type AuthButton struct {
	Label  string     `json:"label"`
	Action AuthAction `json:"action"`
}

// RenderAuthButton projects the session state onto the auth button.
func RenderAuthButton(user credstore.User, authenticated bool) AuthButton {
	if !authenticated {
		return AuthButton{Label: "Login / Sign up", Action: ActionOpenAuthModal}
	}
	name := user.Name
	if name == "" {
		name = user.Email
	}
	return AuthButton{Label: "Logout (" + name + ")", Action: ActionLogout}
}

// ModalView is the projected state of one modal.
type ModalView struct {
	Visible    bool   `json:"visible"`
	Open       bool   `json:"open"`
	AriaHidden string `json:"ariaHidden"`
}

// State is the full projected shell state handed to the front end.
type State struct {
	Tabs        []string             `json:"tabs"`
	ActiveTab   string               `json:"activeTab"`
	ActivePanel string               `json:"activePanel"`
	Modals      map[string]ModalView `json:"modals"`
	AuthButton  AuthButton           `json:"authButton"`
}

// Shell is one session's UI chrome.
type Shell struct {
	mu     sync.Mutex
	tabSet *TabSet
	modals map[string]*Modal
}

// NewShell creates a shell with the standard tabs, panels, and the auth
// modal, in their load-time state.
func NewShell() *Shell {
	return &Shell{
		tabSet: NewTabSet(
			[]string{TabMatch, TabATS},
			[]string{panelPrefix + TabMatch, panelPrefix + TabATS},
			DefaultTab,
		),
		modals: map[string]*Modal{
			AuthModal: NewModal(),
		},
	}
}

// SwitchTab activates a tab and its derived panel.
func (s *Shell) SwitchTab(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabSet.Switch(tabID)
}

// OpenModal opens the named modal. Unknown modals are ignored.
func (s *Shell) OpenModal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.modals[id]; ok {
		m.Open()
	}
}

// CloseModal closes the named modal. Unknown modals are ignored.
func (s *Shell) CloseModal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.modals[id]; ok {
		m.Close()
	}
}

// Render projects the shell plus the session state into a view model.
func (s *Shell) Render(user credstore.User, authenticated bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	modals := make(map[string]ModalView, len(s.modals))
	for id, m := range s.modals {
		modals[id] = ModalView{
			Visible:    m.Visible(),
			Open:       m.OpenMarker(),
			AriaHidden: m.AriaHidden(),
		}
	}

	return State{
		Tabs:        s.tabSet.Tabs(),
		ActiveTab:   s.tabSet.ActiveTab(),
		ActivePanel: s.tabSet.ActivePanel(),
		Modals:      modals,
		AuthButton:  RenderAuthButton(user, authenticated),
	}
}
