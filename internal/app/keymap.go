package app

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the player.
type keyMap struct {
	togglePlay key.Binding
	seekBack   key.Binding
	seekFwd    key.Binding
	volumeUp   key.Binding
	volumeDown key.Binding
	mute       key.Binding
	repeat     key.Binding
	lyrics     key.Binding
	lyricsUp   key.Binding
	lyricsDown key.Binding
	next       key.Binding
	prev       key.Binding
	retry      key.Binding
	dismiss    key.Binding
	closePlay  key.Binding
	reopen     key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		togglePlay: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "play/pause"),
		),
		seekBack: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "-5s"),
		),
		seekFwd: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "+5s"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "volume down"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		repeat: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "repeat"),
		),
		lyrics: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "lyrics"),
		),
		lyricsUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll lyrics"),
		),
		lyricsDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll lyrics"),
		),
		next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next"),
		),
		prev: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous"),
		),
		retry: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "retry"),
		),
		dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		closePlay: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close player"),
		),
		reopen: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "reopen"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.togglePlay, k.seekBack, k.seekFwd, k.next, k.prev, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.togglePlay, k.seekBack, k.seekFwd, k.next, k.prev},
		{k.volumeUp, k.volumeDown, k.mute, k.repeat},
		{k.lyrics, k.lyricsUp, k.lyricsDown},
		{k.retry, k.dismiss, k.closePlay, k.reopen, k.quit},
	}
}
