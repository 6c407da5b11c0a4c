package capinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/termcaps/internal/errors"
)

// recordYAML returns one complete, valid dataset record.
func recordYAML(compact, term, color, underline string) string {
	return fmt.Sprintf(`- name:
    compact: %s
    pretty: %s terminal
    term: %s
  style:
    reset-all: true
    set-color: %s
    unset-color: true
    set-inverse: true
    unset-inverse: true
    set-italics: true
    unset-italics: true
    set-bold: true
    set-faint: true
    unset-bold-faint: true
    set-underline: %s
    unset-underline: true
  cursor:
    basic-movement: true
    set-style: {basic: true, xterm-extended: false}
    save-and-restore: true
  scroll:
    basic: true
    set-region: false
`, compact, compact, term, color, underline)
}

// schemaErrors asserts err is an errors.List and returns it.
func schemaErrors(t *testing.T, err error) errors.List {
	t.Helper()
	require.Error(t, err)
	list, ok := err.(errors.List)
	require.True(t, ok, "expected errors.List, got %T", err)
	return list
}

func TestLoad_Valid(t *testing.T) {
	data := recordYAML("one", "xterm", "{Rgb: {xterm: true, konsole: false}}", "{Fancy: {double: false, kitty: true}}") +
		recordYAML("two", "xterm", "Fixed4Bit", "Basic")

	db, err := Load([]byte(data))
	require.NoError(t, err)
	require.Equal(t, 2, db.Len())

	one, ok := db.ByName("one")
	require.True(t, ok)
	assert.Equal(t, Name{Compact: "one", Pretty: "one terminal", Term: "xterm"}, one.Name)
	assert.Equal(t, ColorRGB{Xterm: true}, one.Caps.Style.SetColor)
	assert.Equal(t, UnderlineFancy{Kitty: true}, one.Caps.Style.SetUnderline)
	assert.True(t, one.Caps.Cursor.SetStyle.Basic)
	assert.False(t, one.Caps.Cursor.SetStyle.XtermExtended)
	assert.False(t, one.Caps.Scroll.SetRegion)

	two, ok := db.ByName("two")
	require.True(t, ok)
	assert.Equal(t, ColorFixed4Bit{}, two.Caps.Style.SetColor)
	assert.Equal(t, UnderlineBasic{}, two.Caps.Style.SetUnderline)
}

func TestLoad_Empty(t *testing.T) {
	for _, input := range []string{"", "# just a comment\n", "[]", "~"} {
		db, err := Load([]byte(input))
		require.NoError(t, err, "%q", input)
		assert.Equal(t, 0, db.Len())
	}
}

func TestLoad_VariantSpellings(t *testing.T) {
	tests := []struct {
		name      string
		color     string
		underline string
		wantColor ColorCap
		wantUnder UnderlineCap
	}{
		{"false means none", "false", "false", ColorNone{}, UnderlineNone{}},
		{"named none", "None", "none", ColorNone{}, UnderlineNone{}},
		{"lower case names", "fixed4bit", "basic", ColorFixed4Bit{}, UnderlineBasic{}},
		{"kebab names", "fixed-8bit", "Basic", ColorFixed8Bit{}, UnderlineBasic{}},
		{"mapping form", "{rgb: {xterm: false, konsole: true}}", "{fancy: {double: true, kitty: false}}",
			ColorRGB{Konsole: true}, UnderlineFancy{Double: true}},
		{"upper RGB", "{RGB: {Xterm: true, Konsole: true}}", "{Fancy: {double: true, kitty: true}}",
			ColorRGB{Xterm: true, Konsole: true}, UnderlineFancy{Double: true, Kitty: true}},
		{"tagged form", "!Rgb {xterm: true, konsole: false}", "!Fancy {double: false, kitty: true}",
			ColorRGB{Xterm: true}, UnderlineFancy{Kitty: true}},
		{"tagged scalar", "!Fixed8Bit", "!Basic", ColorFixed8Bit{}, UnderlineBasic{}},
		{"rgb with neither encoding", "{Rgb: {xterm: false, konsole: false}}", "Basic", ColorRGB{}, UnderlineBasic{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Load([]byte(recordYAML("t", "t", tt.color, tt.underline)))
			require.NoError(t, err)
			p, ok := db.ByName("t")
			require.True(t, ok)
			assert.Equal(t, tt.wantColor, p.Caps.Style.SetColor)
			assert.Equal(t, tt.wantUnder, p.Caps.Style.SetUnderline)
		})
	}
}

func TestLoad_InvalidVariants(t *testing.T) {
	tests := []struct {
		name      string
		color     string
		underline string
		field     string
	}{
		{"bare true underline is ambiguous", "false", "true", "style.set-underline"},
		{"bare true color is ambiguous", "true", "false", "style.set-color"},
		{"fancy without fields", "false", "Fancy", "style.set-underline"},
		{"unknown underline name", "false", "Wavy", "style.set-underline"},
		{"unknown color name", "Fixed24Bit", "false", "style.set-color"},
		{"two-key mapping", "false", "{Basic: x, Fancy: y}", "style.set-underline"},
		{"sequence", "[Rgb]", "false", "style.set-color"},
		{"null", "~", "false", "style.set-color"},
		{"basic with body", "false", "{Basic: {double: true}}", "style.set-underline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(recordYAML("t", "t", tt.color, tt.underline)))
			list := schemaErrors(t, err)
			require.Len(t, list, 1, list.Error())
			assert.Equal(t, errors.ErrInvalidVariant, list[0].Code)
			assert.Equal(t, 0, list[0].Details["record"])
			assert.Equal(t, tt.field, list[0].Details["field"])
		})
	}
}

func TestLoad_MissingFields(t *testing.T) {
	full := recordYAML("a", "t", "false", "false")

	tests := []struct {
		name   string
		remove string
		field  string
	}{
		{"style flag", "    set-bold: true\n", "style.set-bold"},
		{"underline variant", "    set-underline: false\n", "style.set-underline"},
		{"pretty name", "    pretty: a terminal\n", "name.pretty"},
		{"cursor flag", "    save-and-restore: true\n", "cursor.save-and-restore"},
		{"nested style bit", "    set-style: {basic: true, xterm-extended: false}\n", "cursor.set-style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := strings.Replace(full, tt.remove, "", 1)
			require.NotEqual(t, full, data, "fixture did not contain %q", tt.remove)

			// a valid record first so the broken one is record 1
			data = recordYAML("ok", "t", "false", "false") + data

			_, err := Load([]byte(data))
			list := schemaErrors(t, err)
			require.Len(t, list, 1, list.Error())
			assert.Equal(t, errors.ErrMissingField, list[0].Code)
			assert.Equal(t, 1, list[0].Details["record"])
			assert.Equal(t, tt.field, list[0].Details["field"])
		})
	}
}

func TestLoad_MissingNestedBits(t *testing.T) {
	_, err := Load([]byte(recordYAML("t", "t", "{Rgb: {xterm: true}}", "{Fancy: {kitty: true}}")))
	list := schemaErrors(t, err)
	require.Len(t, list, 2, list.Error())
	assert.Equal(t, "style.set-color.rgb.konsole", list[0].Details["field"])
	assert.Equal(t, "style.set-underline.fancy.double", list[1].Details["field"])
}

func TestLoad_MissingBlock(t *testing.T) {
	data := `- name: {compact: a, pretty: A, term: a}
  style:
    reset-all: true
`
	_, err := Load([]byte(data))
	list := schemaErrors(t, err)

	var fields []string
	for _, e := range list {
		if e.Code == errors.ErrMissingField {
			fields = append(fields, e.Details["field"].(string))
		}
	}
	assert.Contains(t, fields, "cursor")
	assert.Contains(t, fields, "scroll")
	assert.Contains(t, fields, "style.set-color")
	assert.Contains(t, fields, "style.unset-underline")
}

func TestLoad_WrongScalarShapes(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		field   string
	}{
		{"string for bool", [2]string{"reset-all: true", "reset-all: yes"}, "style.reset-all"},
		{"number for bool", [2]string{"set-bold: true", "set-bold: 1"}, "style.set-bold"},
		{"bool for string", [2]string{"term: t", "term: true"}, "name.term"},
		{"missing scroll bit", [2]string{"    set-region: false\n", ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := strings.Replace(recordYAML("t", "t", "false", "false"), tt.replace[0], tt.replace[1], 1)
			_, err := Load([]byte(data))
			list := schemaErrors(t, err)
			if tt.field == "" {
				assert.Equal(t, errors.ErrMissingField, list[0].Code)
				return
			}
			require.Len(t, list, 1, list.Error())
			assert.Equal(t, errors.ErrInvalidValue, list[0].Code)
			assert.Equal(t, tt.field, list[0].Details["field"])
		})
	}
}

func TestLoad_InvalidCompactName(t *testing.T) {
	for _, name := range []string{`"has space"`, `"dot.ted"`, `""`, `"ünï"`} {
		data := strings.Replace(recordYAML("t", "t", "false", "false"), "compact: t", "compact: "+name, 1)
		_, err := Load([]byte(data))
		list := schemaErrors(t, err)
		require.Len(t, list, 1, "%s: %s", name, list.Error())
		assert.Equal(t, errors.ErrInvalidValue, list[0].Code, name)
		assert.Equal(t, "name.compact", list[0].Details["field"], name)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	data := strings.Replace(recordYAML("t", "t", "false", "false"), "    set-bold: true\n", "    set-bold: true\n    set-blink: true\n", 1)
	_, err := Load([]byte(data))
	list := schemaErrors(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, errors.ErrUnknownField, list[0].Code)
	assert.Equal(t, "style.set-blink", list[0].Details["field"])
}

func TestLoad_FieldNameAliases(t *testing.T) {
	kebab := recordYAML("t", "t", "false", "Basic")
	camel := strings.NewReplacer(
		"reset-all", "resetAll",
		"set-color", "setColor",
		"unset-bold-faint", "unsetBoldFaint",
		"basic-movement", "basicMovement",
		"xterm-extended", "xtermExtended",
	).Replace(kebab)
	snake := strings.NewReplacer(
		"set-underline", "set_underline",
		"save-and-restore", "save_and_restore",
		"set-region", "set_region",
	).Replace(kebab)

	want, err := Load([]byte(kebab))
	require.NoError(t, err)
	for _, data := range []string{camel, snake} {
		got, err := Load([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, want.Profiles(), got.Profiles())
	}
}

func TestLoad_FieldGivenTwice(t *testing.T) {
	data := strings.Replace(recordYAML("t", "t", "false", "false"), "    set-bold: true\n", "    set-bold: true\n    setBold: false\n", 1)
	_, err := Load([]byte(data))
	list := schemaErrors(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, errors.ErrInvalidValue, list[0].Code)
	assert.Equal(t, "style.set-bold", list[0].Details["field"])
}

func TestLoad_DuplicateCompactName(t *testing.T) {
	data := recordYAML("dup", "a", "false", "false") +
		recordYAML("other", "b", "false", "false") +
		recordYAML("dup", "c", "false", "false")

	_, err := Load([]byte(data))
	list := schemaErrors(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, errors.ErrDuplicateCompactName, list[0].Code)
	assert.Equal(t, "dup", list[0].Details["name"])
	assert.Equal(t, []int{0, 2}, list[0].Details["records"])
}

func TestLoad_CollectsAllErrors(t *testing.T) {
	data := recordYAML("a", "t", "true", "false") +
		recordYAML("b", "t", "false", "true") +
		recordYAML("a", "t", "false", "false")

	_, err := Load([]byte(data))
	list := schemaErrors(t, err)
	require.Len(t, list, 3, list.Error())
	assert.Equal(t, errors.ErrInvalidVariant, list[0].Code)
	assert.Equal(t, 0, list[0].Details["record"])
	assert.Equal(t, errors.ErrInvalidVariant, list[1].Code)
	assert.Equal(t, 1, list[1].Details["record"])
	assert.Equal(t, errors.ErrDuplicateCompactName, list[2].Code)
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad yaml", "- name: [unterminated"},
		{"top-level mapping", "name: {compact: x}"},
		{"top-level scalar", "hello"},
		{"unknown alias", "- *nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.input))
			list := schemaErrors(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, errors.ErrParse, list[0].Code)
		})
	}
}

func TestLoad_RecordNotMapping(t *testing.T) {
	_, err := Load([]byte("- just a string\n"))
	list := schemaErrors(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, errors.ErrInvalidValue, list[0].Code)
	assert.Equal(t, 0, list[0].Details["record"])
}

const sharedDataset = `
- name: {compact: gnome, pretty: GNOME Terminal, term: xterm-256color}
  style: &vte-style
    reset-all: true
    set-color: {Rgb: {xterm: true, konsole: true}}
    unset-color: true
    set-inverse: true
    unset-inverse: true
    set-italics: true
    unset-italics: true
    set-bold: true
    set-faint: true
    unset-bold-faint: true
    set-underline: {Fancy: {double: true, kitty: true}}
    unset-underline: true
  cursor: &vte-cursor
    basic-movement: true
    set-style: {basic: true, xterm-extended: true}
    save-and-restore: true
  scroll: &vte-scroll {basic: true, set-region: true}
- name: {compact: tilix, pretty: Tilix, term: xterm-256color}
  style: *vte-style
  cursor: *vte-cursor
  scroll: *vte-scroll
- name: {compact: xfce, pretty: Xfce Terminal, term: xterm-256color}
  style:
    <<: *vte-style
  cursor:
    <<: *vte-cursor
  scroll: {basic: true, set-region: true}
- name: {compact: tweaked, pretty: Tweaked, term: tweaked}
  style:
    <<: *vte-style
    set-underline: Basic
  cursor: *vte-cursor
  scroll: *vte-scroll
`

func TestLoad_SharedBlocksAreIndependentValues(t *testing.T) {
	db, err := Load([]byte(sharedDataset))
	require.NoError(t, err)

	gnome, _ := db.ByName("gnome")
	tilix, _ := db.ByName("tilix")
	xfce, _ := db.ByName("xfce")
	assert.Equal(t, gnome.Caps, tilix.Caps)
	assert.Equal(t, gnome.Caps, xfce.Caps)

	tweaked, _ := db.ByName("tweaked")
	assert.Equal(t, UnderlineBasic{}, tweaked.Caps.Style.SetUnderline)
	assert.Equal(t, gnome.Caps.Style.SetColor, tweaked.Caps.Style.SetColor)
	// the override did not leak back into the anchor
	assert.Equal(t, UnderlineFancy{Double: true, Kitty: true}, gnome.Caps.Style.SetUnderline)
}

func TestLoad_SharingEqualsInlineSpelling(t *testing.T) {
	shared, err := Load([]byte(sharedDataset))
	require.NoError(t, err)

	out, err := Marshal(shared)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "&")
	assert.NotContains(t, string(out), "*")
	assert.NotContains(t, string(out), "<<")

	inline, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, shared.Profiles(), inline.Profiles())
}

func TestLoad_AliasBomb(t *testing.T) {
	var b strings.Builder
	b.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i < 10; i++ {
		fmt.Fprintf(&b, "a%d: &a%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "*a%d", i-1)
		}
		b.WriteString("]\n")
	}

	_, err := Load([]byte(b.String()))
	list := schemaErrors(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, errors.ErrParse, list[0].Code)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(recordYAML("f", "t", "false", "false")), 0600))

	db, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, db.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
