// Package termview renders a running simulation in the terminal.
package termview

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"sensorsim/internal/config"
	"sensorsim/internal/experiment"
	"sensorsim/internal/model"
)

// worldTop is the first screen row used by the world; rows above it hold the
// status line.
const worldTop = 2

var (
	styleFloor   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleQuiet   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleSensing = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleCrowded = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// View draws every tick onto a screen. It implements experiment.TickObserver.
type View struct {
	mu     sync.Mutex
	screen tcell.Screen
	width  int
	height int
	delay  time.Duration
}

// WorldSize returns the number of cells the configured topology spans.
func WorldSize(exp config.Experiment) (width, height int) {
	switch exp.Topology.Name {
	case "grid":
		return exp.Topology.Width, exp.Topology.Height
	case "line":
		return int(exp.Topology.Size) + 1, 1
	default:
		return int(exp.Topology.Size), 1
	}
}

// New returns a view of a width x height world. delay paces the simulation
// after every drawn tick.
func New(screen tcell.Screen, width, height int, delay time.Duration) *View {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &View{screen: screen, width: width, height: height, delay: delay}
}

func (v *View) ObserveTick(events []experiment.TickEvent) {
	v.Render(events)
	if v.delay > 0 {
		time.Sleep(v.delay)
	}
}

// Render clears the screen and draws the floor, then one glyph per occupied
// cell: '>' or '<' for the heading, 'o' for an agent standing still and '*'
// where several agents share a cell.
func (v *View) Render(events []experiment.TickEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.screen.Clear()
	screenWidth, screenHeight := v.screen.Size()

	tick, total := 0, 0
	if len(events) > 0 {
		tick = events[0].Tick
	}
	for _, e := range events {
		total += e.Score
	}
	mean := 0.0
	if len(events) > 0 {
		mean = float64(total) / float64(len(events))
	}
	status := fmt.Sprintf("tick %d  agents %d  mean score %.2f  (q to quit)", tick, len(events), mean)
	drawText(v.screen, 0, 0, screenWidth, status, styleStatus)

	for y := 0; y < v.height && worldTop+y < screenHeight; y++ {
		for x := 0; x < v.width && x < screenWidth; x++ {
			v.screen.SetContent(x, worldTop+y, '.', nil, styleFloor)
		}
	}

	cells := make(map[[2]int][]experiment.TickEvent)
	for _, e := range events {
		cell := v.cell(e.Position)
		cells[cell] = append(cells[cell], e)
	}
	for cell, occupants := range cells {
		x, y := cell[0], worldTop+cell[1]
		if x >= screenWidth || y >= screenHeight {
			continue
		}
		glyph, style := glyphFor(occupants)
		v.screen.SetContent(x, y, glyph, nil, style)
	}

	v.screen.Show()
}

func (v *View) cell(p model.Position) [2]int {
	x := int(math.Round(p.X))
	y := int(math.Round(p.Y))
	return [2]int{clamp(x, 0, v.width-1), clamp(y, 0, v.height-1)}
}

func glyphFor(occupants []experiment.TickEvent) (rune, tcell.Style) {
	if len(occupants) > 1 {
		return '*', styleCrowded
	}
	e := occupants[0]
	glyph := 'o'
	switch {
	case e.Direction > 0:
		glyph = '>'
	case e.Direction < 0:
		glyph = '<'
	}
	if e.Sensor0[0] || e.Sensor0[1] || e.Sensor1[0] || e.Sensor1[1] {
		return glyph, styleSensing
	}
	return glyph, styleQuiet
}

func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= maxWidth {
			return
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// QuitOnKey polls screen events until q, Escape or Ctrl-C is pressed, then
// calls quit. It returns when the screen is finalized.
func QuitOnKey(screen tcell.Screen, quit func()) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		if key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC || key.Rune() == 'q' {
			quit()
			return
		}
	}
}
