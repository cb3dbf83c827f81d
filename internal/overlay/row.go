package overlay

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/mosoverlay/internal/menu"
)

// placeholder is shown until the first refresh of a live description.
const placeholder = "…"

type row struct {
	root     *gtk.Box
	desc     *gtk.Label
	toggle   *gtk.Label
	selected bool
}

func newRow(it menu.Item, nerdFont bool) *row {
	r := &row{root: gtk.NewBox(gtk.OrientationHorizontal, 18)}
	r.root.AddCSSClass("mos-row")
	r.root.SetFocusable(true)
	if it.Danger {
		r.root.AddCSSClass("danger")
	}

	icon := gtk.NewLabel(it.Icon.Glyph(nerdFont))
	icon.AddCSSClass("mos-icon")
	r.root.Append(icon)

	text := gtk.NewBox(gtk.OrientationVertical, 2)
	text.SetHExpand(true)
	text.SetVAlign(gtk.AlignCenter)

	label := gtk.NewLabel(it.Label)
	label.AddCSSClass("mos-label")
	label.SetXAlign(0)
	text.Append(label)

	desc := it.Description
	if it.Describe != nil {
		desc = placeholder
	}
	r.desc = gtk.NewLabel(desc)
	r.desc.AddCSSClass("mos-desc")
	r.desc.SetXAlign(0)
	r.desc.SetVisible(desc != "")
	text.Append(r.desc)
	r.root.Append(text)

	if it.Togglable() {
		r.toggle = gtk.NewLabel("OFF")
		r.toggle.AddCSSClass("mos-switch")
		r.toggle.SetVAlign(gtk.AlignCenter)
		r.root.Append(r.toggle)
	}

	return r
}

func (r *row) setSelected(on bool) {
	r.selected = on
	if on {
		r.root.AddCSSClass("selected")
	} else {
		r.root.RemoveCSSClass("selected")
	}
}

func (r *row) setDescription(s string) {
	r.desc.SetText(s)
	r.desc.SetVisible(s != "")
}

func (r *row) setValue(on bool) {
	if r.toggle == nil {
		return
	}
	if on {
		r.toggle.SetText("ON")
		r.toggle.AddCSSClass("on")
	} else {
		r.toggle.SetText("OFF")
		r.toggle.RemoveCSSClass("on")
	}
}
