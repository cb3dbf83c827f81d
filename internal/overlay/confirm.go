package overlay

import "github.com/diamondburned/gotk4/pkg/gtk/v4"

// confirmPanel asks a yes/no question. "No" is preselected.
type confirmPanel struct {
	root    *gtk.Box
	message *gtk.Label
	yesBtn  *gtk.Label
	noBtn   *gtk.Label

	yes  bool
	done func(bool)
}

func newConfirmPanel() *confirmPanel {
	p := &confirmPanel{}

	card := gtk.NewBox(gtk.OrientationVertical, 24)
	card.AddCSSClass("mos-confirm")

	p.message = gtk.NewLabel("")
	p.message.AddCSSClass("mos-title")
	p.message.SetWrap(true)
	card.Append(p.message)

	buttons := gtk.NewBox(gtk.OrientationHorizontal, 0)
	buttons.SetHAlign(gtk.AlignCenter)
	p.yesBtn = gtk.NewLabel("Yes")
	p.noBtn = gtk.NewLabel("No")
	for _, b := range []*gtk.Label{p.yesBtn, p.noBtn} {
		b.AddCSSClass("mos-confirm-button")
		buttons.Append(b)
	}
	card.Append(buttons)

	p.root = gtk.NewBox(gtk.OrientationVertical, 0)
	p.root.SetHAlign(gtk.AlignCenter)
	p.root.SetVAlign(gtk.AlignCenter)
	p.root.Append(card)

	return p
}

func (p *confirmPanel) active() bool { return p.done != nil }

func (p *confirmPanel) open(message string, done func(bool)) {
	if p.done != nil {
		p.close(false)
	}
	p.message.SetText(message)
	p.done = done
	p.choose(false)
}

func (p *confirmPanel) choose(yes bool) {
	p.yes = yes
	if yes {
		p.yesBtn.AddCSSClass("selected")
		p.noBtn.RemoveCSSClass("selected")
	} else {
		p.noBtn.AddCSSClass("selected")
		p.yesBtn.RemoveCSSClass("selected")
	}
}

// close resolves the question. done runs after the panel is reset so it
// may open another confirmation.
func (p *confirmPanel) close(confirmed bool) {
	done := p.done
	p.done = nil
	if done != nil {
		done(confirmed)
	}
}
