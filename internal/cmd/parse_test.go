package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/termcaps/internal/color"
	"github.com/hpungsan/termcaps/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"reset-all", ResetAll{}},
		{"  set-bold  ", SetBold{}},
		{"SET-BOLD", SetBold{}},
		{"set-color fg #ff8800", SetColor{Target: Foreground, Color: color.RGB(0xff, 0x88, 0x00)}},
		{"set-color bg red", SetColor{Target: Background, Color: color.Fixed(1)}},
		{"set-color background bright red", SetColor{Target: Background, Color: color.Fixed(9)}},
		{"set-color fg @208", SetColor{Target: Foreground, Color: color.Fixed(208)}},
		{"set-color fg css:orange", SetColor{Target: Foreground, Color: color.RGB(255, 165, 0)}},
		{"unset-color bg", UnsetColor{Target: Background}},
		{"set-inverse", SetInverse{}},
		{"unset-inverse", UnsetInverse{}},
		{"set-italics", SetItalics{}},
		{"unset-italics", UnsetItalics{}},
		{"set-faint", SetFaint{}},
		{"unset-bold-faint", UnsetBoldFaint{}},
		{"set-underline", SetUnderline{Shape: Straight}},
		{"set-underline curly", SetUnderline{Shape: Curly}},
		{"set-underline Double", SetUnderline{Shape: Double}},
		{"unset-underline", UnsetUnderline{}},
		{"set-underline-color #010203", SetUnderlineColor{Color: color.RGB(1, 2, 3)}},
		{"unset-underline-color", UnsetUnderlineColor{}},
		{"move-cursor up 3", MoveCursor{Direction: Up, N: 3}},
		{"move-cursor next-line", MoveCursor{Direction: NextLine}},
		{"move-cursor prev_line 2", MoveCursor{Direction: PrevLine, N: 2}},
		{"move-cursor column 1", MoveCursor{Direction: Column, N: 1}},
		{"set-cursor-position 10 1", SetCursorPosition{Row: 10, Col: 1}},
		{"set-cursor-style steady-bar", SetCursorStyle{Shape: SteadyBar}},
		{"set-cursor-style default", SetCursorStyle{Shape: DefaultCursor}},
		{"save-cursor", SaveCursor{}},
		{"restore-cursor", RestoreCursor{}},
		{"scroll-up", ScrollUp{}},
		{"scroll-up 5", ScrollUp{N: 5}},
		{"scroll-down 2", ScrollDown{N: 2}},
		{"set-scroll-region 1 24", SetScrollRegion{Top: 1, Bottom: 24}},
		{"reset-scroll-region", ResetScrollRegion{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		text    string
		wantMsg string
	}{
		{"", "empty command"},
		{"   ", "empty command"},
		{"blink", `unknown command "blink"`},
		{"set-bold now", "set-bold takes no arguments"},
		{"set-color fg", "usage: set-color"},
		{"set-color up red", "color target must be fg or bg"},
		{"set-color fg #12", "6 characters"},
		{"set-color fg css:nope", "namespace css"},
		{"unset-color", "usage: unset-color"},
		{"set-underline wavy", "usage: set-underline"},
		{"set-underline curly extra", "usage: set-underline"},
		{"set-underline-color", "usage: set-underline-color"},
		{"move-cursor", "usage: move-cursor"},
		{"move-cursor sideways 1", "usage: move-cursor"},
		{"move-cursor up -1", "not a count"},
		{"move-cursor up 70000", "not a count"},
		{"move-cursor up 1 2", "usage: move-cursor"},
		{"set-cursor-position 1", "usage: set-cursor-position"},
		{"set-cursor-position a b", "not a count"},
		{"set-cursor-style", "usage: set-cursor-style"},
		{"set-cursor-style blink-beam", "usage: set-cursor-style"},
		{"scroll-up 1 2", "usage: scroll-up"},
		{"scroll-down x", "not a count"},
		{"set-scroll-region 1", "usage: set-scroll-region"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), err.Error())
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	cmds := []Command{
		ResetAll{},
		SetColor{Target: Background, Color: color.Fixed(9)},
		SetColor{Target: Foreground, Color: color.Fixed(200)},
		SetColor{Target: Foreground, Color: color.RGB(1, 2, 3)},
		UnsetColor{Target: Foreground},
		SetUnderline{Shape: Dashed},
		SetUnderlineColor{Color: color.Fixed(3)},
		MoveCursor{Direction: Back},
		MoveCursor{Direction: Column, N: 80},
		SetCursorPosition{Row: 3, Col: 4},
		SetCursorStyle{Shape: BlinkUnderline},
		ScrollUp{},
		ScrollDown{N: 9},
		SetScrollRegion{Top: 5, Bottom: 6},
		UnsetBoldFaint{},
	}

	for _, c := range cmds {
		text := Format(c)
		got, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, c, got, text)
	}
	assert.Equal(t, "", Format(nil))
}

func TestParseAll(t *testing.T) {
	cmds, err := ParseAll([]string{"reset-all", "set-bold", "move-cursor down 2"})
	require.NoError(t, err)
	assert.Equal(t, []Command{ResetAll{}, SetBold{}, MoveCursor{Direction: Down, N: 2}}, cmds)

	_, err = ParseAll([]string{"set-bold", "nope"})
	assert.Error(t, err)

	cmds, err = ParseAll(nil)
	require.NoError(t, err)
	assert.Empty(t, cmds)
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"\x1b[1m", `\x1b[1m`},
		{"\x1b[38:2::1:2:3m", `\x1b[38:2::1:2:3m`},
		{"plain", "plain"},
		{"a\\b", `a\\b`},
		{"\n\t\x7f\xff", `\x0a\x09\x7f\xff`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape([]byte(tt.in)))
	}
}
