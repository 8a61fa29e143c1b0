package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-rally/status"
)

// RPMRedline scales the tachometer bar
const RPMRedline = 10000.0

const rpmBarWidth = 12

// HUD draws the status rows and the pause banner
type HUD struct{}

func NewHUD() *HUD { return &HUD{} }

// Draw renders the HUD from the registry
func (h *HUD) Draw(s tcell.Screen, reg *status.Registry, camera CameraMode) {
	w, sh := s.Size()
	base := tcell.StyleDefault.Background(RGBBackground.Tcell()).Foreground(RGBHUD.Tcell())
	dim := base.Foreground(RGBHUDDim.Tcell())

	rpm := reg.Floats.Get(status.KeyRPM).Get()
	speed := reg.Floats.Get(status.KeySpeed).Get()
	gear := reg.Ints.Get(status.KeyGear).Load()
	substeps := reg.Ints.Get(status.KeySubsteps).Load()
	state := reg.Strings.Get(status.KeyState).Load()

	x := drawText(s, 0, 0, w, base, fmt.Sprintf("RPM %5.0f ", rpm))
	x = h.drawRPMBar(s, x, 0, w, base, rpm)
	line := fmt.Sprintf("  %5.1f km/h  GEAR %s  SUB %d", speed*3.6, gearLabel(gear), substeps)
	drawText(s, x, 0, w, base, line)

	flags := []string{strings.ToUpper(orDefault(state, "loading")), strings.ToUpper(camera.String())}
	if reg.Bools.Get(status.KeyMuted).Load() {
		flags = append(flags, "MUTED")
	}
	if skipped := reg.Ints.Get(status.KeySkippedFrames).Load(); skipped > 0 {
		flags = append(flags, fmt.Sprintf("SKIPPED %d", skipped))
	}
	style := dim
	if state == "error" {
		style = base.Foreground(RGBError.Tcell())
	}
	drawText(s, 0, 1, w, style, strings.Join(flags, "  "))

	if reg.Bools.Get(status.KeyPaused).Load() {
		banner := " PAUSED "
		drawText(s, (w-len(banner))/2, sh/2, w, base.Foreground(RGBWarn.Tcell()).Reverse(true), banner)
	}
}

func (h *HUD) drawRPMBar(s tcell.Screen, x, y, w int, base tcell.Style, rpm float64) int {
	filled := int(rpm / RPMRedline * rpmBarWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > rpmBarWidth {
		filled = rpmBarWidth
	}
	for i := 0; i < rpmBarWidth && x < w; i++ {
		r := '░'
		st := base.Foreground(RGBHUDDim.Tcell())
		if i < filled {
			r = '█'
			st = base.Foreground(RGBRPMLow.Lerp(RGBRPMHigh, float64(i)/rpmBarWidth).Tcell())
		}
		s.SetContent(x, y, r, nil, st)
		x++
	}
	return x
}

func gearLabel(g int64) string {
	switch {
	case g < 0:
		return "R"
	case g == 0:
		return "N"
	}
	return fmt.Sprint(g)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// drawText writes s from (x, y) clipped at w and returns the column after it
func drawText(s tcell.Screen, x, y, w int, style tcell.Style, text string) int {
	for _, r := range text {
		if x >= w {
			break
		}
		if x >= 0 {
			s.SetContent(x, y, r, nil, style)
		}
		x++
	}
	return x
}
