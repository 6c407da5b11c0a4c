package cmd

import (
	"github.com/hpungsan/termcaps/internal/capinfo"
	"github.com/hpungsan/termcaps/internal/color"
)

// Style is a complete description of how text should look. Nil colors and
// a nil Underline mean "terminal default". Faint does not cancel Bold.
type Style struct {
	Foreground *color.Color
	Background *color.Color
	Inverse    bool
	Bold       bool
	Faint      bool
	Italic     bool
	Underline  *UnderlineStyle
}

// UnderlineStyle describes an underline. Color is optional.
type UnderlineStyle struct {
	Color *color.Color
	Shape UnderlineShape
}

// Commands returns the commands that switch the terminal from any state to
// s: a ResetAll followed by one command per attribute that s sets.
func (s Style) Commands() []Command {
	cmds := []Command{ResetAll{}}
	if s.Foreground != nil {
		cmds = append(cmds, SetColor{Target: Foreground, Color: *s.Foreground})
	}
	if s.Background != nil {
		cmds = append(cmds, SetColor{Target: Background, Color: *s.Background})
	}
	if s.Bold {
		cmds = append(cmds, SetBold{})
	}
	if s.Faint {
		cmds = append(cmds, SetFaint{})
	}
	if s.Italic {
		cmds = append(cmds, SetItalics{})
	}
	if s.Inverse {
		cmds = append(cmds, SetInverse{})
	}
	if u := s.Underline; u != nil {
		cmds = append(cmds, SetUnderline{Shape: u.Shape})
		if u.Color != nil {
			cmds = append(cmds, SetUnderlineColor{Color: *u.Color})
		}
	}
	return cmds
}

// ResolveStyle resolves s.Commands() for p.
func ResolveStyle(p capinfo.Profile, s Style) ([]byte, error) {
	return ResolveAll(p, s.Commands()...)
}
