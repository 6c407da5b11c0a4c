package color

// Color cube values for the 6x6x6 palette (indices 16-231).
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// grayscaleStart is the first grayscale index (232-255 = 24 shades).
const grayscaleStart = 232

// cubeLevel returns the cube coordinate whose value is exactly v.
func cubeLevel(v uint8) (int, bool) {
	for i, cv := range cubeValues {
		if cv == v {
			return i, true
		}
	}
	return 0, false
}

// PaletteIndex returns the 256-color palette entry that is exactly equal to c.
//
// Palette colors are returned as-is. RGB colors match only the standardized
// part of the palette (the color cube and the grayscale ramp); entries 0-15
// are themed by every terminal and never match. No approximation is done.
func PaletteIndex(c Color) (uint8, bool) {
	if c.Kind == KindFixed {
		return c.Index, true
	}

	r, okR := cubeLevel(c.R)
	g, okG := cubeLevel(c.G)
	b, okB := cubeLevel(c.B)
	if okR && okG && okB {
		return uint8(16 + 36*r + 6*g + b), true
	}

	// Grayscale ramp: 8, 18, ..., 238
	if c.R == c.G && c.G == c.B && c.R >= 8 && c.R <= 238 && (c.R-8)%10 == 0 {
		return grayscaleStart + (c.R-8)/10, true
	}
	return 0, false
}

// PaletteRGB returns the RGB value of a standardized palette entry (16-255).
// ok is false for the themed entries 0-15.
func PaletteRGB(n uint8) (Color, bool) {
	switch {
	case n < 16:
		return Color{}, false
	case n >= grayscaleStart:
		v := 8 + 10*(n-grayscaleStart)
		return RGB(v, v, v), true
	default:
		i := n - 16
		return RGB(cubeValues[i/36], cubeValues[(i/6)%6], cubeValues[i%6]), true
	}
}
