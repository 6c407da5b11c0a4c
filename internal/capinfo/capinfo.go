// Package capinfo describes which escape sequences a terminal emulator
// understands and holds a validated, read-only database of such profiles.
//
// A Database is built once (Load, LoadFile or New) and never mutated
// afterwards; it is safe for concurrent readers. Lookups hand out Profile
// values, so callers cannot modify the database through them.
package capinfo

import (
	"encoding/json"
	"strings"
)

// Name identifies a terminal emulator or similar program.
type Name struct {
	// Compact is the unique key used within code. Only alphanumerics,
	// hyphens and underscores are allowed.
	Compact string `json:"compact" yaml:"compact"`
	// Pretty is the human-readable name.
	Pretty string `json:"pretty" yaml:"pretty"`
	// Term is the value of $TERM the terminal sets. Several terminals may
	// share one value (e.g. libvte-based ones using xterm-256color).
	Term string `json:"term" yaml:"term"`
}

// Profile is the full capability description of one terminal.
type Profile struct {
	Name Name `json:"name"`
	Caps Caps `json:"caps"`
}

// Caps are the capabilities of a terminal emulator or similar program.
type Caps struct {
	Style  StyleCaps  `json:"style"`
	Cursor CursorCaps `json:"cursor"`
	Scroll ScrollCaps `json:"scroll"`
}

// StyleCaps are the capabilities for styling text.
type StyleCaps struct {
	// ESC[0m
	ResetAll bool `json:"reset-all"`

	SetColor ColorCap `json:"set-color"`
	// ESC[39m (foreground), ESC[49m (background)
	UnsetColor bool `json:"unset-color"`

	// ESC[7m
	SetInverse bool `json:"set-inverse"`
	// ESC[27m
	UnsetInverse bool `json:"unset-inverse"`

	// ESC[3m
	SetItalics bool `json:"set-italics"`
	// ESC[23m
	UnsetItalics bool `json:"unset-italics"`

	// ESC[1m
	SetBold bool `json:"set-bold"`
	// ESC[2m
	SetFaint bool `json:"set-faint"`
	// ESC[22m, resets both bold and faint
	UnsetBoldFaint bool `json:"unset-bold-faint"`

	SetUnderline UnderlineCap `json:"set-underline"`
	// ESC[24m
	UnsetUnderline bool `json:"unset-underline"`
}

// ColorCap is the color support of a terminal. It is a closed set:
// ColorNone, ColorFixed4Bit, ColorFixed8Bit or ColorRGB.
type ColorCap interface {
	colorRank() int
}

// ColorNone means the terminal cannot display colors.
type ColorNone struct{}

// ColorFixed4Bit means only the 16 classic colors: ESC[30-37m, ESC[90-97m
// (foreground) and ESC[40-47m, ESC[100-107m (background).
type ColorFixed4Bit struct{}

// ColorFixed8Bit means the 256-color palette: ESC[38;5;<N>m and ESC[48;5;<N>m.
type ColorFixed8Bit struct{}

// ColorRGB means the 256-color palette plus the listed 24-bit encodings.
// With neither bit set it is equivalent to ColorFixed8Bit.
type ColorRGB struct {
	// Xterm: ESC[38:2:<I>:<R>:<G>:<B>m, the color space id I left empty.
	Xterm bool `json:"xterm" yaml:"xterm"`
	// Konsole: ESC[38;2;<R>;<G>;<B>m
	Konsole bool `json:"konsole" yaml:"konsole"`
}

func (ColorNone) colorRank() int      { return 0 }
func (ColorFixed4Bit) colorRank() int { return 1 }
func (ColorFixed8Bit) colorRank() int { return 2 }
func (ColorRGB) colorRank() int       { return 3 }

// UnderlineCap is the underline support of a terminal. It is a closed set:
// UnderlineNone, UnderlineBasic or UnderlineFancy.
type UnderlineCap interface {
	underlineRank() int
}

// UnderlineNone means the terminal cannot underline text.
type UnderlineNone struct{}

// UnderlineBasic means plain, un-styled underlining: ESC[4m.
type UnderlineBasic struct{}

// UnderlineFancy means some underline styling beyond ESC[4m.
type UnderlineFancy struct {
	// Double: ESC[21m
	Double bool `json:"double" yaml:"double"`
	// Kitty: ESC[4:<0-5>m shapes, ESC[58;...m underline color, ESC[59m reset.
	Kitty bool `json:"kitty" yaml:"kitty"`
}

func (UnderlineNone) underlineRank() int  { return 0 }
func (UnderlineBasic) underlineRank() int { return 1 }
func (UnderlineFancy) underlineRank() int { return 2 }

// CursorCaps are the capabilities for interacting with the cursor.
type CursorCaps struct {
	// ESC[<N>A..G and ESC[<R>;<C>H
	BasicMovement bool            `json:"basic-movement" yaml:"basic-movement"`
	SetStyle      CursorStyleCaps `json:"set-style" yaml:"set-style"`
	// ESC[s and ESC[u
	SaveAndRestore bool `json:"save-and-restore" yaml:"save-and-restore"`
}

// CursorStyleCaps are the two independent cursor-shape protocols.
type CursorStyleCaps struct {
	// VT520 DECSCUSR: ESC[<0-4> q (blinking/steady block and underline)
	Basic bool `json:"basic" yaml:"basic"`
	// Xterm bar shapes: ESC[5 q and ESC[6 q
	XtermExtended bool `json:"xterm-extended" yaml:"xterm-extended"`
}

// ScrollCaps are the capabilities for scrolling the screen.
type ScrollCaps struct {
	// ESC[<N>S and ESC[<N>T
	Basic bool `json:"basic" yaml:"basic"`
	// ESC[<Top>;<Bot>r
	SetRegion bool `json:"set-region" yaml:"set-region"`
}

// Conservative returns the profile used for unknown terminals: every
// capability at its least-capable value. identifier is kept as the Term so
// callers can tell what was asked for.
func Conservative(identifier string) Profile {
	return Profile{
		Name: Name{
			Compact: "unknown",
			Pretty:  "Unknown terminal",
			Term:    identifier,
		},
		Caps: Caps{
			Style: StyleCaps{
				SetColor:     ColorNone{},
				SetUnderline: UnderlineNone{},
			},
		},
	}
}

// Min returns the capabilities shared by both c and other.
func (c Caps) Min(other Caps) Caps {
	return Caps{
		Style:  c.Style.min(other.Style),
		Cursor: c.Cursor.min(other.Cursor),
		Scroll: c.Scroll.min(other.Scroll),
	}
}

func (s StyleCaps) min(o StyleCaps) StyleCaps {
	return StyleCaps{
		ResetAll:       s.ResetAll && o.ResetAll,
		SetColor:       minColor(s.SetColor, o.SetColor),
		UnsetColor:     s.UnsetColor && o.UnsetColor,
		SetInverse:     s.SetInverse && o.SetInverse,
		UnsetInverse:   s.UnsetInverse && o.UnsetInverse,
		SetItalics:     s.SetItalics && o.SetItalics,
		UnsetItalics:   s.UnsetItalics && o.UnsetItalics,
		SetBold:        s.SetBold && o.SetBold,
		SetFaint:       s.SetFaint && o.SetFaint,
		UnsetBoldFaint: s.UnsetBoldFaint && o.UnsetBoldFaint,
		SetUnderline:   minUnderline(s.SetUnderline, o.SetUnderline),
		UnsetUnderline: s.UnsetUnderline && o.UnsetUnderline,
	}
}

func minColor(a, b ColorCap) ColorCap {
	if a.colorRank() != b.colorRank() {
		if a.colorRank() < b.colorRank() {
			return a
		}
		return b
	}
	if x, ok := a.(ColorRGB); ok {
		y := b.(ColorRGB)
		return ColorRGB{Xterm: x.Xterm && y.Xterm, Konsole: x.Konsole && y.Konsole}
	}
	return a
}

func minUnderline(a, b UnderlineCap) UnderlineCap {
	if a.underlineRank() != b.underlineRank() {
		if a.underlineRank() < b.underlineRank() {
			return a
		}
		return b
	}
	if x, ok := a.(UnderlineFancy); ok {
		y := b.(UnderlineFancy)
		return UnderlineFancy{Double: x.Double && y.Double, Kitty: x.Kitty && y.Kitty}
	}
	return a
}

func (c CursorCaps) min(o CursorCaps) CursorCaps {
	return CursorCaps{
		BasicMovement: c.BasicMovement && o.BasicMovement,
		SetStyle: CursorStyleCaps{
			Basic:         c.SetStyle.Basic && o.SetStyle.Basic,
			XtermExtended: c.SetStyle.XtermExtended && o.SetStyle.XtermExtended,
		},
		SaveAndRestore: c.SaveAndRestore && o.SaveAndRestore,
	}
}

func (s ScrollCaps) min(o ScrollCaps) ScrollCaps {
	return ScrollCaps{
		Basic:     s.Basic && o.Basic,
		SetRegion: s.SetRegion && o.SetRegion,
	}
}

// ValidCompact reports whether s is usable as a compact name.
func ValidCompact(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == '-' || b == '_':
		default:
			return false
		}
	}
	return true
}

// Describe renders a variant capability for humans, e.g. "Fancy{double,kitty}".
func Describe(v any) string {
	switch c := v.(type) {
	case ColorNone, UnderlineNone:
		return "None"
	case ColorFixed4Bit:
		return "Fixed4Bit"
	case ColorFixed8Bit:
		return "Fixed8Bit"
	case ColorRGB:
		return "Rgb{" + bits("xterm", c.Xterm, "konsole", c.Konsole) + "}"
	case UnderlineBasic:
		return "Basic"
	case UnderlineFancy:
		return "Fancy{" + bits("double", c.Double, "kitty", c.Kitty) + "}"
	case nil:
		return "<unset>"
	}
	return "<unknown>"
}

func bits(pairs ...any) string {
	var set []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1].(bool) {
			set = append(set, pairs[i].(string))
		}
	}
	return strings.Join(set, ",")
}

// JSON forms follow the dataset spelling: false, "Fixed4Bit", {"Rgb": {...}}.

func (ColorNone) MarshalJSON() ([]byte, error)      { return []byte("false"), nil }
func (ColorFixed4Bit) MarshalJSON() ([]byte, error) { return []byte(`"Fixed4Bit"`), nil }
func (ColorFixed8Bit) MarshalJSON() ([]byte, error) { return []byte(`"Fixed8Bit"`), nil }

func (c ColorRGB) MarshalJSON() ([]byte, error) {
	type rgb ColorRGB
	return json.Marshal(map[string]rgb{"Rgb": rgb(c)})
}

func (UnderlineNone) MarshalJSON() ([]byte, error)  { return []byte("false"), nil }
func (UnderlineBasic) MarshalJSON() ([]byte, error) { return []byte(`"Basic"`), nil }

func (u UnderlineFancy) MarshalJSON() ([]byte, error) {
	type fancy UnderlineFancy
	return json.Marshal(map[string]fancy{"Fancy": fancy(u)})
}
