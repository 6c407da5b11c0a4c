package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hpungsan/termcaps/internal/color"
	"github.com/hpungsan/termcaps/internal/errors"
)

// Parse reads one command from its text form: the command name followed by
// its arguments, separated by spaces. Examples:
//
//	set-bold
//	set-color fg #ff8800
//	set-color bg css:rebeccapurple
//	set-underline curly
//	move-cursor up 3
//	set-cursor-position 10 1
//	set-cursor-style steady-bar
//	set-scroll-region 1 24
//
// Counts may be omitted, leaving the terminal default. Color arguments use
// the forms accepted by color.Parse; a multi-word name like "bright red" may
// be written as the remaining words.
func Parse(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, errors.NewInvalidRequest("empty command")
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "reset-all":
		return noArgs(name, args, ResetAll{})
	case "set-color":
		if len(args) < 2 {
			return nil, usage(name, "fg|bg <color>")
		}
		t, err := parseTarget(args[0])
		if err != nil {
			return nil, err
		}
		c, err := color.Parse(strings.Join(args[1:], " "))
		if err != nil {
			return nil, err
		}
		return SetColor{Target: t, Color: c}, nil
	case "unset-color":
		if len(args) != 1 {
			return nil, usage(name, "fg|bg")
		}
		t, err := parseTarget(args[0])
		if err != nil {
			return nil, err
		}
		return UnsetColor{Target: t}, nil
	case "set-inverse":
		return noArgs(name, args, SetInverse{})
	case "unset-inverse":
		return noArgs(name, args, UnsetInverse{})
	case "set-italics":
		return noArgs(name, args, SetItalics{})
	case "unset-italics":
		return noArgs(name, args, UnsetItalics{})
	case "set-bold":
		return noArgs(name, args, SetBold{})
	case "set-faint":
		return noArgs(name, args, SetFaint{})
	case "unset-bold-faint":
		return noArgs(name, args, UnsetBoldFaint{})
	case "set-underline":
		switch len(args) {
		case 0:
			return SetUnderline{Shape: Straight}, nil
		case 1:
			shape, ok := lookup(underlineShapeNames[:], args[0])
			if !ok {
				return nil, usage(name, "["+strings.Join(underlineShapeNames[:], "|")+"]")
			}
			return SetUnderline{Shape: UnderlineShape(shape)}, nil
		}
		return nil, usage(name, "[shape]")
	case "unset-underline":
		return noArgs(name, args, UnsetUnderline{})
	case "set-underline-color":
		if len(args) == 0 {
			return nil, usage(name, "<color>")
		}
		c, err := color.Parse(strings.Join(args, " "))
		if err != nil {
			return nil, err
		}
		return SetUnderlineColor{Color: c}, nil
	case "unset-underline-color":
		return noArgs(name, args, UnsetUnderlineColor{})

	case "move-cursor":
		if len(args) < 1 || len(args) > 2 {
			return nil, usage(name, "<direction> [n]")
		}
		d, ok := lookup(directionNames[:], args[0])
		if !ok {
			return nil, usage(name, strings.Join(directionNames[:], "|")+" [n]")
		}
		n, err := optCount(name, args[1:])
		if err != nil {
			return nil, err
		}
		return MoveCursor{Direction: Direction(d), N: n}, nil
	case "set-cursor-position":
		row, col, err := twoCounts(name, args, "<row> <col>")
		if err != nil {
			return nil, err
		}
		return SetCursorPosition{Row: row, Col: col}, nil
	case "set-cursor-style":
		if len(args) != 1 {
			return nil, usage(name, "<shape>")
		}
		shape, ok := lookup(cursorShapeNames[:], args[0])
		if !ok {
			return nil, usage(name, strings.Join(cursorShapeNames[:], "|"))
		}
		return SetCursorStyle{Shape: CursorShape(shape)}, nil
	case "save-cursor":
		return noArgs(name, args, SaveCursor{})
	case "restore-cursor":
		return noArgs(name, args, RestoreCursor{})

	case "scroll-up", "scroll-down":
		if len(args) > 1 {
			return nil, usage(name, "[n]")
		}
		n, err := optCount(name, args)
		if err != nil {
			return nil, err
		}
		if name == "scroll-up" {
			return ScrollUp{N: n}, nil
		}
		return ScrollDown{N: n}, nil
	case "set-scroll-region":
		top, bottom, err := twoCounts(name, args, "<top> <bottom>")
		if err != nil {
			return nil, err
		}
		return SetScrollRegion{Top: top, Bottom: bottom}, nil
	case "reset-scroll-region":
		return noArgs(name, args, ResetScrollRegion{})
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown command %q", fields[0]))
}

// ParseAll parses each text in turn.
func ParseAll(texts []string) ([]Command, error) {
	cmds := make([]Command, 0, len(texts))
	for _, t := range texts {
		c, err := Parse(t)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

// Format renders c in the form Parse reads.
func Format(c Command) string {
	switch c := c.(type) {
	case SetColor:
		return fmt.Sprintf("%s %s %s", c.Name(), c.Target, c.Color)
	case UnsetColor:
		return fmt.Sprintf("%s %s", c.Name(), c.Target)
	case SetUnderline:
		return fmt.Sprintf("%s %s", c.Name(), c.Shape)
	case SetUnderlineColor:
		return fmt.Sprintf("%s %s", c.Name(), c.Color)
	case MoveCursor:
		if c.N == 0 {
			return fmt.Sprintf("%s %s", c.Name(), c.Direction)
		}
		return fmt.Sprintf("%s %s %d", c.Name(), c.Direction, c.N)
	case SetCursorPosition:
		return fmt.Sprintf("%s %d %d", c.Name(), c.Row, c.Col)
	case SetCursorStyle:
		return fmt.Sprintf("%s %s", c.Name(), c.Shape)
	case ScrollUp:
		return withCount(c.Name(), c.N)
	case ScrollDown:
		return withCount(c.Name(), c.N)
	case SetScrollRegion:
		return fmt.Sprintf("%s %d %d", c.Name(), c.Top, c.Bottom)
	case nil:
		return ""
	}
	return c.Name()
}

func withCount(name string, n uint16) string {
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s %d", name, n)
}

func noArgs(name string, args []string, c Command) (Command, error) {
	if len(args) != 0 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("%s takes no arguments", name))
	}
	return c, nil
}

func usage(name, args string) error {
	return errors.NewInvalidRequest(fmt.Sprintf("usage: %s %s", name, args))
}

func parseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "fg", "foreground":
		return Foreground, nil
	case "bg", "background":
		return Background, nil
	}
	return 0, errors.NewInvalidRequest(fmt.Sprintf("color target must be fg or bg, got %q", s))
}

func lookup(names []string, s string) (int, bool) {
	s = strings.ToLower(strings.ReplaceAll(s, "_", "-"))
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}

func parseCount(name, s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("%s: %q is not a count between 0 and 65535", name, s))
	}
	return uint16(n), nil
}

func optCount(name string, args []string) (uint16, error) {
	if len(args) == 0 {
		return 0, nil
	}
	return parseCount(name, args[0])
}

func twoCounts(name string, args []string, want string) (uint16, uint16, error) {
	if len(args) != 2 {
		return 0, 0, usage(name, want)
	}
	a, err := parseCount(name, args[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := parseCount(name, args[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
