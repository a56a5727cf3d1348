// Package gui is the desktop front-end: one window showing the current image
// with buttons and key bindings for the triage actions.
package gui

import (
	"fmt"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/lehigh-university-libraries/culler/internal/config"
	"github.com/lehigh-university-libraries/culler/internal/imagelist"
	"github.com/lehigh-university-libraries/culler/internal/images"
	"github.com/lehigh-university-libraries/culler/internal/models"
	"github.com/lehigh-university-libraries/culler/internal/triage"
)

const appID = "com.github.lehigh-university-libraries.culler"

type GUI struct {
	svc *triage.Service
	win fyne.Window

	image    *canvas.Image
	name     *widget.Label
	pathEnd  *widget.Label
	status   *widget.Label
	position *widget.Label
	info     *widget.RichText

	actions map[string]func()
	keys    map[fyne.KeyName]string
	busy    chan struct{}
}

// Run opens the window and blocks until it is closed.
func Run(svc *triage.Service) {
	cfg := svc.Config()

	a := app.NewWithID(appID)
	g := &GUI{
		svc:  svc,
		win:  a.NewWindow(cfg.Appearance.Title),
		keys: Bindings(cfg.KeyBinds),
		busy: make(chan struct{}, 1),
	}
	g.actions = map[string]func(){
		config.ActionKeep:     func() { g.run(svc.Keep) },
		config.ActionDelete:   func() { g.run(svc.Delete) },
		config.ActionNext:     func() { g.run(svc.Next) },
		config.ActionPrevious: func() { g.run(func() error { svc.Previous(); return nil }) },
		config.ActionFirst:    func() { g.run(svc.First) },
		config.ActionLast:     func() { g.run(svc.Last) },
		config.ActionOpen:     g.open,
		config.ActionCopy:     g.copyPath,
	}

	g.win.SetContent(g.build())
	g.win.Resize(fyne.NewSize(float32(cfg.Appearance.Width), float32(cfg.Appearance.Height)))
	g.win.Canvas().SetOnTypedKey(g.onKey)
	g.win.SetCloseIntercept(func() {
		size := g.win.Canvas().Size()
		cfg.Appearance.Width = int(size.Width)
		cfg.Appearance.Height = int(size.Height)
		if err := svc.Close(); err != nil {
			slog.Error("Failed to save session", "error", err)
		}
		g.win.Close()
	})

	g.refresh()
	g.win.ShowAndRun()
}

func (g *GUI) build() fyne.CanvasObject {
	g.image = canvas.NewImageFromImage(nil)
	g.image.FillMode = canvas.ImageFillContain
	g.image.ScaleMode = canvas.ImageScaleSmooth

	g.name = widget.NewLabel("")
	g.name.TextStyle = fyne.TextStyle{Bold: true}
	g.pathEnd = widget.NewLabel("")
	g.pathEnd.Truncation = fyne.TextTruncateEllipsis
	g.status = widget.NewLabel("")
	g.position = widget.NewLabel("")
	g.info = widget.NewRichTextFromMarkdown("")
	g.info.Wrapping = fyne.TextWrapWord

	button := func(label, action string) *widget.Button {
		b := widget.NewButton(label, g.actions[action])
		switch action {
		case config.ActionKeep:
			b.Importance = widget.SuccessImportance
		case config.ActionDelete:
			b.Importance = widget.DangerImportance
		}
		return b
	}

	controls := container.NewGridWithColumns(3,
		button("Previous", config.ActionPrevious),
		button("Delete", config.ActionDelete),
		button("Keep", config.ActionKeep),
		button("First", config.ActionFirst),
		button("Next", config.ActionNext),
		button("Last", config.ActionLast),
		button("Open", config.ActionOpen),
		button("Copy path", config.ActionCopy),
		widget.NewButton("Blacklist dir", g.blacklist),
	)

	side := container.NewBorder(
		container.NewVBox(g.name, g.pathEnd, g.status, widget.NewSeparator()),
		container.NewVBox(widget.NewSeparator(), g.position, controls),
		nil, nil,
		container.NewVScroll(g.info),
	)

	split := container.NewHSplit(g.image, side)
	split.Offset = 0.75
	return split
}

func (g *GUI) onKey(ev *fyne.KeyEvent) {
	action, ok := g.keys[ev.Name]
	if !ok {
		return
	}
	if fn := g.actions[action]; fn != nil {
		fn()
	}
}

// run executes action off the UI goroutine and redraws when it finishes.
// Key presses that arrive while an action is running are dropped.
func (g *GUI) run(action func() error) {
	select {
	case g.busy <- struct{}{}:
	default:
		return
	}
	go func() {
		defer func() { <-g.busy }()
		err := action()
		fyne.Do(func() {
			if err != nil {
				g.showError(err)
			}
			g.refresh()
		})
	}()
}

func (g *GUI) showError(err error) {
	if imagelist.IsExhausted(err) {
		dialog.ShowInformation("No more images", "Every image in the collection has been shown.", g.win)
		return
	}
	slog.Error("Action failed", "error", err)
	dialog.ShowError(err, g.win)
}

func (g *GUI) refresh() {
	view := g.svc.View()
	frame := g.svc.CurrentFrame()

	g.image.Image = frame.Image
	g.image.Refresh()

	g.name.SetText(view.Filename)
	g.pathEnd.SetText(view.PathEnd)
	g.status.SetText(statusText(view.Status))
	g.status.Importance = statusImportance(view.Status)
	g.status.Refresh()
	g.position.SetText(fmt.Sprintf("%d / %d    kept %d, deleted %d", view.Index+1, view.Len, view.Kept, view.Deleted))
	g.info.ParseMarkdown(Markdown(view))
}

func (g *GUI) open() {
	if err := g.svc.OpenCurrent(); err != nil {
		g.showError(err)
	}
}

func (g *GUI) copyPath() {
	path, err := g.svc.CopyCurrentPath()
	if err != nil {
		g.showError(err)
		return
	}
	slog.Debug("Copied path", "path", path)
}

func (g *GUI) blacklist() {
	dir := g.svc.BlacklistCurrentDir()
	dialog.ShowInformation("Blacklisted", dir+"\n\nExcluded from the next rescan.", g.win)
}

// Bindings inverts the configured action to key map. Keys that are bound to
// more than one action keep the first action in sorted order.
func Bindings(keyBinds map[string]string) map[fyne.KeyName]string {
	out := make(map[fyne.KeyName]string, len(keyBinds))
	for action, key := range keyBinds {
		if key == "" {
			continue
		}
		name := fyne.KeyName(key)
		if prev, ok := out[name]; ok && prev < action {
			slog.Warn("Key bound twice", "key", key, "kept", prev, "ignored", action)
			continue
		}
		out[name] = action
	}
	return out
}

// Markdown renders the info panel text.
func Markdown(view *models.View) string {
	var b strings.Builder
	for _, line := range strings.Split(view.Info, "\n") {
		fmt.Fprintf(&b, "%s\n\n", line)
	}
	section := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		fmt.Fprintf(&b, "**%s**\n\n", title)
		for _, n := range names {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}
	section("Source", view.SourceMatches)
	section("Bad name", view.BadNameMatches)
	section("Bad path", view.BadPathMatches)
	section("Similar", view.Similar)
	return b.String()
}

func statusText(status string) string {
	switch status {
	case images.Kept.String():
		return "KEPT"
	case images.Deleted.String():
		return "DELETED"
	}
	return ""
}

func statusImportance(status string) widget.Importance {
	switch status {
	case images.Kept.String():
		return widget.SuccessImportance
	case images.Deleted.String():
		return widget.DangerImportance
	}
	return widget.MediumImportance
}
