package render

import "github.com/gdamore/tcell/v2"

// RGB is a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Predefined colors
var (
	RGBBackground = RGB{18, 20, 28}
	RGBHUD        = RGB{220, 220, 220}
	RGBHUDDim     = RGB{120, 120, 130}
	RGBWarn       = RGB{255, 170, 40}
	RGBError      = RGB{240, 60, 60}
	RGBRPMLow     = RGB{80, 200, 120}
	RGBRPMHigh    = RGB{240, 60, 60}
)

// HexRGB unpacks 0xRRGGBB
func HexRGB(c uint32) RGB {
	return RGB{uint8(c >> 16), uint8(c >> 8), uint8(c)}
}

func clamp(v float64) uint8 {
	if v >= 255.0 {
		return 255
	}
	if v <= 0.0 {
		return 0
	}
	return uint8(v + 0.5)
}

// Scale multiplies each channel by f
func (c RGB) Scale(f float64) RGB {
	return RGB{clamp(float64(c.R) * f), clamp(float64(c.G) * f), clamp(float64(c.B) * f)}
}

// Lerp blends from c to o by t in [0,1]
func (c RGB) Lerp(o RGB, t float64) RGB {
	return RGB{
		clamp(float64(c.R) + (float64(o.R)-float64(c.R))*t),
		clamp(float64(c.G) + (float64(o.G)-float64(c.G))*t),
		clamp(float64(c.B) + (float64(o.B)-float64(c.B))*t),
	}
}

// Tcell converts to a true-color tcell.Color
func (c RGB) Tcell() tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Shade darkens low geometry and brightens high geometry, height in meters relative to the camera target
func Shade(c RGB, height float64) RGB {
	f := 1 + height*0.04
	if f < 0.45 {
		f = 0.45
	}
	if f > 1.5 {
		f = 1.5
	}
	return c.Scale(f)
}
