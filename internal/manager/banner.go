package manager

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type bannerKind int

const (
	bannerNone bannerKind = iota
	bannerInfo
	bannerSuccess
	bannerError
)

// banner is the single status line of the Contact Manager. Every change bumps
// seq so a pending auto-clear only removes the banner it was scheduled for.
type banner struct {
	kind bannerKind
	text string
	seq  int
}

func (b *banner) set(kind bannerKind, text string) {
	b.kind = kind
	b.text = text
	b.seq++
}

// success shows text and schedules its removal after BannerTTL.
func (b *banner) success(text string) tea.Cmd {
	b.set(bannerSuccess, text)
	seq := b.seq
	return tea.Tick(BannerTTL, func(time.Time) tea.Msg {
		return clearBannerMsg{seq: seq}
	})
}

func (b *banner) clear(seq int) {
	if seq == b.seq && b.kind == bannerSuccess {
		b.kind = bannerNone
		b.text = ""
	}
}

func (b banner) View() string {
	switch b.kind {
	case bannerInfo:
		return infoStyle.Render(b.text)
	case bannerSuccess:
		return successStyle.Render(b.text)
	case bannerError:
		return errorStyle.Render(b.text)
	default:
		return ""
	}
}
