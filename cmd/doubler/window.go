package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/openfluke/doubler/app"
	"github.com/openfluke/doubler/ui"
)

var (
	background   = color.RGBA{0x1e, 0x1e, 0x24, 0xff}
	panel        = color.RGBA{0x33, 0x33, 0x3b, 0xff}
	doubleColor  = color.RGBA{0x1f, 0x6f, 0xeb, 0xff}
	resetColor   = color.RGBA{0xd0, 0x33, 0x33, 0xff}
	disabledGrey = color.RGBA{0x55, 0x55, 0x5c, 0xff}
)

// runWindow opens the desktop window. It blocks until the window closes.
func runWindow(m *app.Model) error {
	ebiten.SetWindowTitle(ui.Title)
	ebiten.SetWindowSize(ui.Width*2, ui.Height*2)
	ebiten.SetTPS(30)
	return ebiten.RunGame(&game{m: m})
}

type game struct {
	m *app.Model
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	action := ui.ActionNone
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		action = ui.HitTest(g.m, x, y)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) && g.m.Available() {
		action = ui.ActionDouble
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		action = ui.ActionReset
	}
	ui.Apply(g.m, action)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	vector.DrawFilledRect(screen, 16, 76, ui.Width-32, 20, panel, false)
	for _, l := range ui.Lines(g.m) {
		ebitenutil.DebugPrintAt(screen, l.Text, l.X, l.Y)
	}
	for _, b := range ui.Buttons {
		fill := disabledGrey
		if b.Enabled(g.m) {
			fill = doubleColor
			if b.Action == ui.ActionReset {
				fill = resetColor
			}
		}
		vector.DrawFilledRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), fill, false)
		ebitenutil.DebugPrintAt(screen, b.Label, b.X+8, b.Y+5)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ui.Width, ui.Height
}
