package cmd

import (
	"fmt"
	"strconv"

	"github.com/hpungsan/termcaps/internal/capinfo"
	"github.com/hpungsan/termcaps/internal/color"
	"github.com/hpungsan/termcaps/internal/errors"
)

// Capability paths reported in UNSUPPORTED errors.
const (
	capResetAll       = "style.reset-all"
	capSetColor       = "style.set-color"
	capFixed8Bit      = "style.set-color.fixed-8bit"
	capRGB            = "style.set-color.rgb"
	capUnsetColor     = "style.unset-color"
	capSetInverse     = "style.set-inverse"
	capUnsetInverse   = "style.unset-inverse"
	capSetItalics     = "style.set-italics"
	capUnsetItalics   = "style.unset-italics"
	capSetBold        = "style.set-bold"
	capSetFaint       = "style.set-faint"
	capUnsetBoldFaint = "style.unset-bold-faint"
	capSetUnderline   = "style.set-underline"
	capUnsetUnderline = "style.unset-underline"
	capUnderlineColor = "style.set-underline.fancy.kitty"
	capBasicMovement  = "cursor.basic-movement"
	capStyleBasic     = "cursor.set-style.basic"
	capStyleExtended  = "cursor.set-style.xterm-extended"
	capSaveRestore    = "cursor.save-and-restore"
	capScrollBasic    = "scroll.basic"
	capScrollRegion   = "scroll.set-region"
)

// Resolve returns the escape sequence that performs c on a terminal with
// profile p. For a well-formed command the only error is UNSUPPORTED, whose
// details carry the command name and the capability path that ruled it out.
//
// Underlines are the one place with a fallback: a shape the terminal cannot
// draw is sent as a plain underline. Everything else is exact.
func Resolve(p capinfo.Profile, c Command) ([]byte, error) {
	s := p.Caps.Style
	cur := p.Caps.Cursor
	scr := p.Caps.Scroll

	switch c := c.(type) {
	case ResetAll:
		return sgrIf(s.ResetAll, c, capResetAll, "0")
	case SetColor:
		return setColor(s.SetColor, c)
	case UnsetColor:
		if c.Target == Background {
			return sgrIf(s.UnsetColor, c, capUnsetColor, "49")
		}
		return sgrIf(s.UnsetColor, c, capUnsetColor, "39")
	case SetInverse:
		return sgrIf(s.SetInverse, c, capSetInverse, "7")
	case UnsetInverse:
		return sgrIf(s.UnsetInverse, c, capUnsetInverse, "27")
	case SetItalics:
		return sgrIf(s.SetItalics, c, capSetItalics, "3")
	case UnsetItalics:
		return sgrIf(s.UnsetItalics, c, capUnsetItalics, "23")
	case SetBold:
		return sgrIf(s.SetBold, c, capSetBold, "1")
	case SetFaint:
		return sgrIf(s.SetFaint, c, capSetFaint, "2")
	case UnsetBoldFaint:
		return sgrIf(s.UnsetBoldFaint, c, capUnsetBoldFaint, "22")
	case SetUnderline:
		return setUnderline(s.SetUnderline, c)
	case UnsetUnderline:
		return sgrIf(s.UnsetUnderline, c, capUnsetUnderline, "24")
	case SetUnderlineColor:
		if !kittyUnderline(s.SetUnderline) {
			return nil, unsupported(c, capUnderlineColor)
		}
		if c.Color.Kind == color.KindRGB {
			return sgr(fmt.Sprintf("58;2;%d;%d;%d", c.Color.R, c.Color.G, c.Color.B)), nil
		}
		return sgr("58;5;" + strconv.Itoa(int(c.Color.Index))), nil
	case UnsetUnderlineColor:
		return sgrIf(kittyUnderline(s.SetUnderline), c, capUnderlineColor, "59")

	case MoveCursor:
		if c.Direction > Column {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown direction %d", c.Direction))
		}
		if !cur.BasicMovement {
			return nil, unsupported(c, capBasicMovement)
		}
		return csi(param(c.N), c.Direction.final()), nil
	case SetCursorPosition:
		if !cur.BasicMovement {
			return nil, unsupported(c, capBasicMovement)
		}
		return csi(pair(c.Row, c.Col), 'H'), nil
	case SetCursorStyle:
		switch {
		case c.Shape <= SteadyUnderline:
			if !cur.SetStyle.Basic {
				return nil, unsupported(c, capStyleBasic)
			}
		case c.Shape <= SteadyBar:
			if !cur.SetStyle.XtermExtended {
				return nil, unsupported(c, capStyleExtended)
			}
		default:
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown cursor shape %d", c.Shape))
		}
		return csi(strconv.Itoa(int(c.Shape))+" ", 'q'), nil
	case SaveCursor:
		return csiIf(cur.SaveAndRestore, c, capSaveRestore, "", 's')
	case RestoreCursor:
		return csiIf(cur.SaveAndRestore, c, capSaveRestore, "", 'u')

	case ScrollUp:
		return csiIf(scr.Basic, c, capScrollBasic, param(c.N), 'S')
	case ScrollDown:
		return csiIf(scr.Basic, c, capScrollBasic, param(c.N), 'T')
	case SetScrollRegion:
		return csiIf(scr.SetRegion, c, capScrollRegion, pair(c.Top, c.Bottom), 'r')
	case ResetScrollRegion:
		return csiIf(scr.SetRegion, c, capScrollRegion, "", 'r')
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown command %T", c))
}

// ResolveAll resolves every command and concatenates the results. It stops
// at the first command that cannot be resolved.
func ResolveAll(p capinfo.Profile, cmds ...Command) ([]byte, error) {
	var out []byte
	for _, c := range cmds {
		b, err := Resolve(p, c)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// setColor picks the best encoding the terminal accepts for c.Color.
func setColor(cc capinfo.ColorCap, c SetColor) ([]byte, error) {
	base := 30
	if c.Target == Background {
		base = 40
	}

	switch cc.(type) {
	case capinfo.ColorNone, nil:
		return nil, unsupported(c, capSetColor)
	}

	if c.Color.Kind == color.KindRGB {
		if rgb, ok := cc.(capinfo.ColorRGB); ok {
			r, g, b := c.Color.R, c.Color.G, c.Color.B
			if rgb.Xterm {
				return sgr(fmt.Sprintf("%d:2::%d:%d:%d", base+8, r, g, b)), nil
			}
			if rgb.Konsole {
				return sgr(fmt.Sprintf("%d;2;%d;%d;%d", base+8, r, g, b)), nil
			}
		}
		n, ok := color.PaletteIndex(c.Color)
		if !ok || !palette256(cc) {
			return nil, unsupported(c, capRGB)
		}
		return sgr(fmt.Sprintf("%d;5;%d", base+8, n)), nil
	}

	n := c.Color.Index
	switch {
	case n < 8:
		return sgr(strconv.Itoa(base + int(n))), nil
	case n < 16:
		return sgr(strconv.Itoa(base + 60 + int(n) - 8)), nil
	case palette256(cc):
		return sgr(fmt.Sprintf("%d;5;%d", base+8, n)), nil
	}
	return nil, unsupported(c, capFixed8Bit)
}

// palette256 reports whether the terminal accepts 256-color palette indices.
// An Rgb capability with neither encoding still implies the palette.
func palette256(cc capinfo.ColorCap) bool {
	switch cc.(type) {
	case capinfo.ColorFixed8Bit, capinfo.ColorRGB:
		return true
	}
	return false
}

func setUnderline(uc capinfo.UnderlineCap, c SetUnderline) ([]byte, error) {
	fancy, ok := uc.(capinfo.UnderlineFancy)
	if !ok {
		if _, basic := uc.(capinfo.UnderlineBasic); basic {
			return sgr("4"), nil
		}
		return nil, unsupported(c, capSetUnderline)
	}

	switch c.Shape {
	case Double:
		if fancy.Double {
			return sgr("21"), nil
		}
	case Curly, Dotted, Dashed:
		if fancy.Kitty {
			return sgr("4:" + strconv.Itoa(int(c.Shape)+1)), nil
		}
	}
	return sgr("4"), nil
}

func kittyUnderline(uc capinfo.UnderlineCap) bool {
	fancy, ok := uc.(capinfo.UnderlineFancy)
	return ok && fancy.Kitty
}

func unsupported(c Command, capability string) error {
	return errors.NewUnsupported(c.Name(), capability)
}

func csi(params string, final byte) []byte {
	b := make([]byte, 0, len(params)+3)
	b = append(b, 0x1b, '[')
	b = append(b, params...)
	return append(b, final)
}

func sgr(params string) []byte {
	return csi(params, 'm')
}

func sgrIf(ok bool, c Command, capability, params string) ([]byte, error) {
	return csiIf(ok, c, capability, params, 'm')
}

func csiIf(ok bool, c Command, capability, params string, final byte) ([]byte, error) {
	if !ok {
		return nil, unsupported(c, capability)
	}
	return csi(params, final), nil
}

// param renders a numeric parameter; zero is left empty.
func param(n uint16) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(int(n))
}

// pair renders two parameters, or nothing when both are zero.
func pair(a, b uint16) string {
	if a == 0 && b == 0 {
		return ""
	}
	return param(a) + ";" + param(b)
}
