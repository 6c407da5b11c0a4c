// Package cmd turns abstract, terminal-independent commands into the escape
// sequences a particular terminal understands.
//
// A Command says what should happen ("make the text bold", "move the cursor
// up three rows"). Resolve looks at a capinfo.Profile and either returns the
// exact bytes to write or an UNSUPPORTED error naming the capability that is
// missing. Nothing is emulated: a command the terminal cannot perform is
// never silently dropped.
package cmd

import "github.com/hpungsan/termcaps/internal/color"

// Command is one abstract terminal operation. The set is closed; every
// implementation lives in this package.
type Command interface {
	// Name is the command's text name, e.g. "set-color".
	Name() string
	command()
}

// Target selects which color a color command changes.
type Target uint8

const (
	Foreground Target = iota
	Background
)

func (t Target) String() string {
	if t == Background {
		return "bg"
	}
	return "fg"
}

// UnderlineShape is the requested look of an underline. Shapes the terminal
// cannot draw fall back to Straight.
type UnderlineShape uint8

const (
	Straight UnderlineShape = iota
	Double
	Curly
	Dotted
	Dashed
)

var underlineShapeNames = [...]string{"straight", "double", "curly", "dotted", "dashed"}

func (s UnderlineShape) String() string {
	if int(s) < len(underlineShapeNames) {
		return underlineShapeNames[s]
	}
	return "unknown"
}

// Direction is a relative or absolute cursor movement.
type Direction uint8

const (
	Up       Direction = iota // CSI n A
	Down                      // CSI n B
	Forward                   // CSI n C
	Back                      // CSI n D
	NextLine                  // CSI n E, to column 1
	PrevLine                  // CSI n F, to column 1
	Column                    // CSI n G, absolute column
)

var directionNames = [...]string{"up", "down", "forward", "back", "next-line", "prev-line", "column"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

func (d Direction) final() byte {
	return "ABCDEFG"[d]
}

// CursorShape is a DECSCUSR cursor style. The numeric value is the
// parameter sent to the terminal.
type CursorShape uint8

const (
	DefaultCursor   CursorShape = iota // terminal's configured default
	BlinkBlock                         // 1
	SteadyBlock                        // 2
	BlinkUnderline                     // 3
	SteadyUnderline                    // 4
	BlinkBar                           // 5, xterm extension
	SteadyBar                          // 6, xterm extension
)

var cursorShapeNames = [...]string{
	"default", "blink-block", "steady-block", "blink-underline",
	"steady-underline", "blink-bar", "steady-bar",
}

func (s CursorShape) String() string {
	if int(s) < len(cursorShapeNames) {
		return cursorShapeNames[s]
	}
	return "unknown"
}

// Style commands.
type (
	ResetAll struct{}

	SetColor struct {
		Target Target
		Color  color.Color
	}

	UnsetColor struct{ Target Target }

	SetInverse     struct{}
	UnsetInverse   struct{}
	SetItalics     struct{}
	UnsetItalics   struct{}
	SetBold        struct{}
	SetFaint       struct{}
	UnsetBoldFaint struct{}

	SetUnderline        struct{ Shape UnderlineShape }
	UnsetUnderline      struct{}
	SetUnderlineColor   struct{ Color color.Color }
	UnsetUnderlineColor struct{}
)

// Cursor commands. Counts and positions of zero are sent without a
// parameter, which terminals treat as 1.
type (
	MoveCursor struct {
		Direction Direction
		N         uint16
	}
	SetCursorPosition struct{ Row, Col uint16 }
	SetCursorStyle    struct{ Shape CursorShape }
	SaveCursor        struct{}
	RestoreCursor     struct{}
)

// Scroll commands.
type (
	ScrollUp          struct{ N uint16 }
	ScrollDown        struct{ N uint16 }
	SetScrollRegion   struct{ Top, Bottom uint16 }
	ResetScrollRegion struct{}
)

func (ResetAll) Name() string            { return "reset-all" }
func (SetColor) Name() string            { return "set-color" }
func (UnsetColor) Name() string          { return "unset-color" }
func (SetInverse) Name() string          { return "set-inverse" }
func (UnsetInverse) Name() string        { return "unset-inverse" }
func (SetItalics) Name() string          { return "set-italics" }
func (UnsetItalics) Name() string        { return "unset-italics" }
func (SetBold) Name() string             { return "set-bold" }
func (SetFaint) Name() string            { return "set-faint" }
func (UnsetBoldFaint) Name() string      { return "unset-bold-faint" }
func (SetUnderline) Name() string        { return "set-underline" }
func (UnsetUnderline) Name() string      { return "unset-underline" }
func (SetUnderlineColor) Name() string   { return "set-underline-color" }
func (UnsetUnderlineColor) Name() string { return "unset-underline-color" }
func (MoveCursor) Name() string          { return "move-cursor" }
func (SetCursorPosition) Name() string   { return "set-cursor-position" }
func (SetCursorStyle) Name() string      { return "set-cursor-style" }
func (SaveCursor) Name() string          { return "save-cursor" }
func (RestoreCursor) Name() string       { return "restore-cursor" }
func (ScrollUp) Name() string            { return "scroll-up" }
func (ScrollDown) Name() string          { return "scroll-down" }
func (SetScrollRegion) Name() string     { return "set-scroll-region" }
func (ResetScrollRegion) Name() string   { return "reset-scroll-region" }

func (ResetAll) command()            {}
func (SetColor) command()            {}
func (UnsetColor) command()          {}
func (SetInverse) command()          {}
func (UnsetInverse) command()        {}
func (SetItalics) command()          {}
func (UnsetItalics) command()        {}
func (SetBold) command()             {}
func (SetFaint) command()            {}
func (UnsetBoldFaint) command()      {}
func (SetUnderline) command()        {}
func (UnsetUnderline) command()      {}
func (SetUnderlineColor) command()   {}
func (UnsetUnderlineColor) command() {}
func (MoveCursor) command()          {}
func (SetCursorPosition) command()   {}
func (SetCursorStyle) command()      {}
func (SaveCursor) command()          {}
func (RestoreCursor) command()       {}
func (ScrollUp) command()            {}
func (ScrollDown) command()          {}
func (SetScrollRegion) command()     {}
func (ResetScrollRegion) command()   {}
