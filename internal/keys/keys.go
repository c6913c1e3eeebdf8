package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Fetch alerts now
	Refresh key.Binding

	// Toasts
	Dismiss key.Binding

	// Views
	ViewAlerts   key.Binding
	ViewThreats  key.Binding
	ViewReports  key.Binding
	ViewRules    key.Binding
	ViewSettings key.Binding

	// Actions
	Bookmark   key.Binding
	NewReport  key.Binding
	Delete     key.Binding
	SwitchTabs key.Binding
	Publish    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "check alerts now"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss newest toast"),
		),
		ViewAlerts: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "alerts"),
		),
		ViewThreats: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "threats"),
		),
		ViewReports: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "reports"),
		),
		ViewRules: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "sigma rules"),
		),
		ViewSettings: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "notification settings"),
		),
		Bookmark: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "toggle bookmark"),
		),
		NewReport: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new report"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		SwitchTabs: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "threats/reports"),
		),
		Publish: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "publish/unpublish report"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Dismiss,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh, k.Dismiss},
		{k.ViewAlerts, k.ViewThreats, k.ViewReports, k.ViewRules, k.ViewSettings},
		{k.Bookmark, k.NewReport, k.Delete, k.SwitchTabs, k.Publish},
	}
}
