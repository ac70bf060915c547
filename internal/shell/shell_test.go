package shell

import (
	"testing"

	"resumelens/internal/credstore"
)

func TestTabSetSwitch(t *testing.T) {
	tests := []struct {
		name          string
		switchTo      []string
		expectedTab   string
		expectedPanel string
	}{
		{
			name:          "initial state activates default",
			switchTo:      nil,
			expectedTab:   TabMatch,
			expectedPanel: "panel-match",
		},
		{
			name:          "switch to ats",
			switchTo:      []string{TabATS},
			expectedTab:   TabATS,
			expectedPanel: "panel-ats",
		},
		{
			name:          "switch is idempotent",
			switchTo:      []string{TabATS, TabATS},
			expectedTab:   TabATS,
			expectedPanel: "panel-ats",
		},
		{
			name:          "switch back to match",
			switchTo:      []string{TabATS, TabMatch},
			expectedTab:   TabMatch,
			expectedPanel: "panel-match",
		},
		{
			name:          "unknown tab deactivates everything",
			switchTo:      []string{"bogus"},
			expectedTab:   "",
			expectedPanel: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTabSet(
				[]string{TabMatch, TabATS},
				[]string{"panel-match", "panel-ats"},
				DefaultTab,
			)
			for _, tab := range tt.switchTo {
				ts.Switch(tab)
			}

			if ts.ActiveTab() != tt.expectedTab {
				t.Errorf("ActiveTab() = %q, want %q", ts.ActiveTab(), tt.expectedTab)
			}
			if ts.ActivePanel() != tt.expectedPanel {
				t.Errorf("ActivePanel() = %q, want %q", ts.ActivePanel(), tt.expectedPanel)
			}
		})
	}
}

func TestTabWithoutMatchingPanel(t *testing.T) {
	ts := NewTabSet([]string{"extra"}, []string{"panel-other"}, "extra")

	if ts.ActiveTab() != "extra" {
		t.Errorf("ActiveTab() = %q, want extra", ts.ActiveTab())
	}
	if ts.ActivePanel() != "" {
		t.Errorf("ActivePanel() = %q, want empty", ts.ActivePanel())
	}
}

func TestModalLockstep(t *testing.T) {
	m := NewModal()

	if m.Visible() || m.OpenMarker() || m.AriaHidden() != "true" {
		t.Errorf("fresh modal not fully closed: visible=%t open=%t aria=%q",
			m.Visible(), m.OpenMarker(), m.AriaHidden())
	}

	m.Open()
	if !m.Visible() || !m.OpenMarker() || m.AriaHidden() != "false" {
		t.Errorf("open modal out of lockstep: visible=%t open=%t aria=%q",
			m.Visible(), m.OpenMarker(), m.AriaHidden())
	}

	m.Close()
	if m.Visible() || m.OpenMarker() || m.AriaHidden() != "true" {
		t.Errorf("closed modal out of lockstep: visible=%t open=%t aria=%q",
			m.Visible(), m.OpenMarker(), m.AriaHidden())
	}

	// Double close stays closed
	m.Close()
	if m.Visible() || m.AriaHidden() != "true" {
		t.Error("double close broke modal state")
	}
}

func TestRenderAuthButton(t *testing.T) {
	tests := []struct {
		name           string
		user           credstore.User
		authenticated  bool
		expectedLabel  string
		expectedAction AuthAction
	}{
		{
			name:           "anonymous",
			user:           credstore.User{},
			authenticated:  false,
			expectedLabel:  "Login / Sign up",
			expectedAction: ActionOpenAuthModal,
		},
		{
			name:           "authenticated with name",
			user:           credstore.User{Name: "Ada", Email: "ada@example.com"},
			authenticated:  true,
			expectedLabel:  "Logout (Ada)",
			expectedAction: ActionLogout,
		},
		{
			name:           "authenticated without name falls back to email",
			user:           credstore.User{Email: "ada@example.com"},
			authenticated:  true,
			expectedLabel:  "Logout (ada@example.com)",
			expectedAction: ActionLogout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			btn := RenderAuthButton(tt.user, tt.authenticated)
			if btn.Label != tt.expectedLabel {
				t.Errorf("Label = %q, want %q", btn.Label, tt.expectedLabel)
			}
			if btn.Action != tt.expectedAction {
				t.Errorf("Action = %q, want %q", btn.Action, tt.expectedAction)
			}
		})
	}
}

func TestShellRender(t *testing.T) {
	sh := NewShell()

	state := sh.Render(credstore.User{}, false)
	if state.ActiveTab != TabMatch {
		t.Errorf("ActiveTab = %q, want %q", state.ActiveTab, TabMatch)
	}
	if state.ActivePanel != "panel-match" {
		t.Errorf("ActivePanel = %q, want panel-match", state.ActivePanel)
	}
	modal, ok := state.Modals[AuthModal]
	if !ok {
		t.Fatal("auth modal missing from rendered state")
	}
	if modal.Visible || modal.Open || modal.AriaHidden != "true" {
		t.Errorf("auth modal should start closed: %+v", modal)
	}

	sh.OpenModal(AuthModal)
	sh.SwitchTab(TabATS)

	state = sh.Render(credstore.User{Name: "Ada"}, true)
	if state.ActiveTab != TabATS {
		t.Errorf("ActiveTab = %q, want %q", state.ActiveTab, TabATS)
	}
	if !state.Modals[AuthModal].Visible {
		t.Error("auth modal should be visible after OpenModal")
	}
	if state.AuthButton.Action != ActionLogout {
		t.Errorf("AuthButton.Action = %q, want logout", state.AuthButton.Action)
	}

	// Unknown modal ids are ignored
	sh.OpenModal("missing")
	sh.CloseModal("missing")
}
