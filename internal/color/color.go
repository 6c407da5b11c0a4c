// Package color holds the color values that styling commands carry.
//
// A Color is either a fixed palette entry (0-255, where 0-15 are the classic
// named ANSI colors) or a 24-bit RGB triple. Which escape sequence a color
// turns into depends on the terminal, see internal/cmd.
package color

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/termcaps/internal/errors"
)

// Kind distinguishes palette colors from RGB colors.
type Kind uint8

const (
	KindFixed Kind = iota // 8-bit palette index
	KindRGB               // 24-bit RGB
)

// Color is a terminal color. The zero value is Fixed(0) (black).
type Color struct {
	Kind  Kind
	Index uint8 // valid for KindFixed
	R     uint8 // R, G, B valid for KindRGB
	G     uint8
	B     uint8
}

// Fixed returns the palette color n.
// Values below 16 are emitted as the compact 4-bit form.
func Fixed(n uint8) Color {
	return Color{Kind: KindFixed, Index: n}
}

// RGB returns a 24-bit color.
func RGB(r, g, b uint8) Color {
	return Color{Kind: KindRGB, R: r, G: g, B: b}
}

// namedFixed lists the 16 classic colors by their palette index.
var namedFixed = map[string]uint8{
	"black":          0,
	"red":            1,
	"green":          2,
	"yellow":         3,
	"blue":           4,
	"magenta":        5,
	"cyan":           6,
	"white":          7,
	"bright black":   8,
	"gray":           8,
	"grey":           8,
	"bright red":     9,
	"bright green":   10,
	"bright yellow":  11,
	"bright blue":    12,
	"bright magenta": 13,
	"bright cyan":    14,
	"bright white":   15,
}

// fixedNames is the canonical name for each of the first 16 palette entries.
var fixedNames = [16]string{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
	"bright black", "bright red", "bright green", "bright yellow",
	"bright blue", "bright magenta", "bright cyan", "bright white",
}

// Parse parses a color from text. Accepted forms (case-insensitive):
//
//	#rrggbb         24-bit hex
//	@N              palette index 0-255
//	red, bright red one of the 16 named colors ("-" or "_" may replace the space)
//	css:<name>      an SVG/CSS color keyword
func Parse(s string) (Color, error) {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return Color{}, errors.NewInvalidRequest("colors cannot have non-ASCII characters")
		}
	}
	s = strings.ToLower(strings.TrimSpace(s))

	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "@"):
		n, err := strconv.ParseUint(s[1:], 10, 8)
		if err != nil {
			return Color{}, errors.NewInvalidRequest(fmt.Sprintf("invalid 8-bit color number %q", s))
		}
		return Fixed(uint8(n)), nil
	case strings.HasPrefix(s, "css:"):
		name := s[len("css:"):]
		rgb, ok := cssNames[name]
		if !ok {
			return Color{}, errors.NewInvalidRequest(fmt.Sprintf("no color %q in namespace css", name))
		}
		return RGB(rgb[0], rgb[1], rgb[2]), nil
	}

	name := strings.NewReplacer("-", " ", "_", " ").Replace(s)
	if n, ok := namedFixed[name]; ok {
		return Fixed(n), nil
	}
	if prefix, _, ok := strings.Cut(s, ":"); ok {
		return Color{}, errors.NewInvalidRequest(fmt.Sprintf("unrecognized color namespace %q", prefix))
	}
	return Color{}, errors.NewInvalidRequest(fmt.Sprintf("could not parse color %q", s))
}

func parseHex(s string) (Color, error) {
	if len(s) != 6 {
		return Color{}, errors.NewInvalidRequest("hex color literal must have 6 characters")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, errors.NewInvalidRequest("hex color literal must only have hexadecimal characters")
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// String returns the canonical text form, which Parse accepts.
func (c Color) String() string {
	if c.Kind == KindRGB {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	if c.Index < 16 {
		return fixedNames[c.Index]
	}
	return fmt.Sprintf("@%d", c.Index)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
