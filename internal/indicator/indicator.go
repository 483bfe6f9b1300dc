// Package indicator shows a small always-on-top window while the microphone is open.
package indicator

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"tolmach/internal/i18n"
)

var (
	colorBG     = color.NRGBA{R: 30, G: 30, B: 34, A: 255}
	colorText   = color.NRGBA{R: 240, G: 240, B: 245, A: 255}
	colorDim    = color.NRGBA{R: 140, G: 140, B: 150, A: 255}
	colorRecord = color.NRGBA{R: 220, G: 50, B: 50, A: 255}
	colorLevel  = color.NRGBA{R: 80, G: 200, B: 120, A: 255}
	colorPanel  = color.NRGBA{R: 45, G: 45, B: 50, A: 255}
)

// State of the indicator.
type State int

const (
	StateRecording State = iota
	StateStopping
)

// LevelFunc returns the current microphone level in [0, 1].
type LevelFunc func() float32

// Window is the recording indicator.
type Window struct {
	mu      sync.Mutex
	window  *app.Window
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	level   LevelFunc
	state   State
	started time.Time
	theme   *material.Theme
}

// New creates an indicator reading the microphone level from level.
func New(level LevelFunc) *Window {
	return &Window{level: level}
}

// Show opens the window and resets the elapsed timer.
func (w *Window) Show() {
	w.mu.Lock()
	w.state = StateRecording
	w.started = time.Now()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	w.stopCh, w.doneCh = stopCh, doneCh
	w.mu.Unlock()

	go w.runEventLoop(stopCh, doneCh)
}

// SetState switches between recording and stopping.
func (w *Window) SetState(state State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
}

// Hide closes the window.
func (w *Window) Hide() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh := w.stopCh
	doneCh := w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	if doneCh != nil {
		select {
		case <-doneCh:
		case <-time.After(time.Second):
		}
	}
}

// Visible reports whether the window is open.
func (w *Window) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Window) snapshot() (State, time.Duration, float32) {
	w.mu.Lock()
	state, started, level := w.state, w.started, w.level
	w.mu.Unlock()

	var l float32
	if level != nil {
		l = clamp(level())
	}
	return state, time.Since(started), l
}

func (w *Window) runEventLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	win := new(app.Window)
	win.Option(
		app.Title(i18n.T("app_name")),
		app.Size(unit.Dp(280), unit.Dp(96)),
		app.MinSize(unit.Dp(280), unit.Dp(96)),
		app.MaxSize(unit.Dp(280), unit.Dp(96)),
	)

	w.mu.Lock()
	w.window = win
	if w.theme == nil {
		w.theme = material.NewTheme()
	}
	w.mu.Unlock()

	var ops op.Ops

	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				win.Perform(system.ActionClose)
				return
			case <-ticker.C:
				win.Invalidate()
			}
		}
	}()

	for {
		switch e := win.Event().(type) {
		case app.DestroyEvent:
			w.mu.Lock()
			// Окно закрыто пользователем
			if w.stopCh == stopCh {
				w.running = false
				w.stopCh = nil
			}
			w.mu.Unlock()
			return
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			w.draw(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (w *Window) draw(gtx layout.Context) layout.Dimensions {
	paint.FillShape(gtx.Ops, colorBG, clip.Rect{Max: gtx.Constraints.Max}.Op())

	state, elapsed, level := w.snapshot()
	th := w.theme

	title := i18n.T("indicator_recording") + " " + FormatElapsed(elapsed)
	if state == StateStopping {
		title = i18n.T("indicator_stopping")
	}

	return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return drawDot(gtx, state == StateRecording)
					}),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						lbl := material.Label(th, unit.Sp(14), title)
						lbl.Color = colorText
						lbl.Font.Weight = font.Medium
						return lbl.Layout(gtx)
					}),
				)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawLevel(gtx, level)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				lbl := material.Label(th, unit.Sp(10), i18n.T("indicator_hint"))
				lbl.Color = colorDim
				lbl.Alignment = text.Start
				lbl.MaxLines = 1
				return lbl.Layout(gtx)
			}),
		)
	})
}

// drawDot рисует мигающую точку записи.
func drawDot(gtx layout.Context, blink bool) layout.Dimensions {
	size := gtx.Dp(unit.Dp(10))
	col := colorRecord
	if blink {
		phase := float64(time.Now().UnixMilli()%1000) / 1000.0
		col.A = uint8(155 + 100*math.Abs(math.Cos(phase*math.Pi)))
	} else {
		col = colorDim
	}
	dot := clip.Ellipse{Max: image.Pt(size, size)}
	paint.FillShape(gtx.Ops, col, dot.Op(gtx.Ops))
	return layout.Dimensions{Size: image.Pt(size, size)}
}

func drawLevel(gtx layout.Context, level float32) layout.Dimensions {
	width := gtx.Constraints.Max.X
	height := gtx.Dp(unit.Dp(6))

	paint.FillShape(gtx.Ops, colorPanel, clip.UniformRRect(image.Rect(0, 0, width, height), height/2).Op(gtx.Ops))

	if filled := int(float32(width) * level); filled > 0 {
		paint.FillShape(gtx.Ops, colorLevel, clip.UniformRRect(image.Rect(0, 0, filled, height), height/2).Op(gtx.Ops))
	}
	return layout.Dimensions{Size: image.Pt(width, height)}
}

// FormatElapsed formats d as m:ss.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func clamp(v float32) float32 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}
