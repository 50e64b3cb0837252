package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap holds every board binding.
type keyMap struct {
	quit           key.Binding
	toggleHelp     key.Binding
	save           key.Binding
	cancel         key.Binding
	undo           key.Binding
	scrollLeft     key.Binding
	scrollRight    key.Binding
	scrollUp       key.Binding
	scrollDown     key.Binding
	nextItem       key.Binding
	prevItem       key.Binding
	advance        key.Binding
	markIncomplete key.Binding
	deleteItem     key.Binding
	details        key.Binding
	yank           key.Binding
	today          key.Binding
}

// KeyConfig overrides the default key for selected bindings. Blank fields keep the default.
type KeyConfig struct {
	Save           string
	Cancel         string
	Undo           string
	Advance        string
	MarkIncomplete string
	Delete         string
	Details        string
	Yank           string
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		save:           key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		cancel:         key.NewBinding(key.WithKeys("esc", "c"), key.WithHelp("esc/c", "cancel edits")),
		undo:           key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
		scrollLeft:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "earlier")),
		scrollRight:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "later")),
		scrollUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "lanes up")),
		scrollDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "lanes down")),
		nextItem:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next item")),
		prevItem:       key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous item")),
		advance:        key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "advance status")),
		markIncomplete: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "mark incomplete")),
		deleteItem:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete item")),
		details:        key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i", "item details")),
		yank:           key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy item")),
		today:          key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "jump to today")),
	}
}

// applyConfig applies configured key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.save, cfg.Save, "s", "save")
	configureBinding(&k.undo, cfg.Undo, "u", "undo")
	configureBinding(&k.advance, cfg.Advance, ">", "advance status")
	configureBinding(&k.markIncomplete, cfg.MarkIncomplete, "x", "mark incomplete")
	configureBinding(&k.deleteItem, cfg.Delete, "d", "delete item")
	configureBinding(&k.details, cfg.Details, "i", "item details")
	configureBinding(&k.yank, cfg.Yank, "y", "copy item")
	if strings.TrimSpace(cfg.Cancel) != "" {
		keys, help := parseBindingKeys(cfg.Cancel, "c")
		k.cancel.SetKeys(append([]string{"esc"}, keys...)...)
		k.cancel.SetHelp("esc/"+help, "cancel edits")
	}
}

// configureBinding replaces the keys of b when value is set.
func configureBinding(b *key.Binding, value, fallback, desc string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	keys, help := parseBindingKeys(value, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns one configured key into matcher keys and help text.
func parseBindingKeys(value, fallback string) ([]string, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if strings.EqualFold(value, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(value) == 1 {
		r, _ := utf8.DecodeRuneInString(value)
		if unicode.IsUpper(r) {
			return []string{value, "shift+" + strings.ToLower(value)}, value
		}
		return []string{value}, value
	}
	return []string{strings.ToLower(value)}, value
}

// ShortHelp returns the bindings shown in the compact help line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.save, k.cancel, k.undo, k.advance, k.details, k.toggleHelp, k.quit,
	}
}

// FullHelp returns every binding grouped by concern.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.save, k.cancel, k.undo, k.toggleHelp, k.quit},
		{k.scrollLeft, k.scrollRight, k.scrollUp, k.scrollDown, k.today, k.nextItem, k.prevItem},
		{k.advance, k.markIncomplete, k.deleteItem, k.details, k.yank},
	}
}
