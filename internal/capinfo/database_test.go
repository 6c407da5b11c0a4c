package capinfo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/termcaps/internal/errors"
)

func profile(compact, term string, color ColorCap, underline UnderlineCap) Profile {
	return Profile{
		Name: Name{Compact: compact, Pretty: compact, Term: term},
		Caps: Caps{
			Style: StyleCaps{
				ResetAll:     true,
				SetColor:     color,
				UnsetColor:   true,
				SetBold:      true,
				SetUnderline: underline,
			},
			Cursor: CursorCaps{BasicMovement: true, SetStyle: CursorStyleCaps{Basic: true, XtermExtended: true}},
			Scroll: ScrollCaps{Basic: true, SetRegion: true},
		},
	}
}

func testDB(t *testing.T) *Database {
	t.Helper()
	db, err := New([]Profile{
		profile("alpha", "shared", ColorRGB{Xterm: true, Konsole: true}, UnderlineFancy{Double: true, Kitty: true}),
		profile("beta", "solo", ColorFixed4Bit{}, UnderlineBasic{}),
		profile("gamma", "shared", ColorRGB{Konsole: true}, UnderlineFancy{Kitty: true}),
		profile("shared", "other", ColorFixed8Bit{}, UnderlineNone{}),
	})
	require.NoError(t, err)
	return db
}

func TestNew(t *testing.T) {
	db := testDB(t)
	assert.Equal(t, 4, db.Len())

	names := make([]string, 0, db.Len())
	for _, p := range db.Profiles() {
		names = append(names, p.Name.Compact)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma", "shared"}, names)
}

func TestNew_CopiesInput(t *testing.T) {
	in := []Profile{profile("a", "t", ColorNone{}, UnderlineNone{})}
	db, err := New(in)
	require.NoError(t, err)

	in[0].Name.Compact = "changed"
	_, ok := db.ByName("a")
	assert.True(t, ok)

	out := db.Profiles()
	out[0].Name.Compact = "changed"
	p, _ := db.ByName("a")
	assert.Equal(t, "a", p.Name.Compact)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name     string
		profiles []Profile
		code     errors.ErrorCode
	}{
		{
			name: "duplicate compact name",
			profiles: []Profile{
				profile("x", "a", ColorNone{}, UnderlineNone{}),
				profile("x", "b", ColorNone{}, UnderlineNone{}),
			},
			code: errors.ErrDuplicateCompactName,
		},
		{
			name:     "invalid compact name",
			profiles: []Profile{profile("no spaces", "a", ColorNone{}, UnderlineNone{})},
			code:     errors.ErrInvalidValue,
		},
		{
			name:     "unset color",
			profiles: []Profile{profile("x", "a", nil, UnderlineNone{})},
			code:     errors.ErrMissingField,
		},
		{
			name:     "unset underline",
			profiles: []Profile{profile("x", "a", ColorNone{}, nil)},
			code:     errors.ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.profiles)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), err.Error())
		})
	}
}

func TestNew_Empty(t *testing.T) {
	db, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, db.Len())
	assert.Empty(t, db.Terms())
}

func TestByName(t *testing.T) {
	db := testDB(t)

	p, ok := db.ByName("beta")
	require.True(t, ok)
	assert.Equal(t, "solo", p.Name.Term)

	_, ok = db.ByName("BETA")
	assert.False(t, ok)
	_, ok = db.ByName("missing")
	assert.False(t, ok)
}

func TestByTerm_FirstInDatasetOrder(t *testing.T) {
	db := testDB(t)

	p, ok := db.ByTerm("shared")
	require.True(t, ok)
	assert.Equal(t, "alpha", p.Name.Compact)

	// repeated lookups are stable
	for i := 0; i < 10; i++ {
		again, _ := db.ByTerm("shared")
		assert.Equal(t, p, again)
	}

	_, ok = db.ByTerm("missing")
	assert.False(t, ok)
}

func TestByTerm_OrderDependent(t *testing.T) {
	a := profile("a", "same", ColorNone{}, UnderlineNone{})
	b := profile("b", "same", ColorNone{}, UnderlineNone{})

	db1, err := New([]Profile{a, b})
	require.NoError(t, err)
	db2, err := New([]Profile{b, a})
	require.NoError(t, err)

	p1, _ := db1.ByTerm("same")
	p2, _ := db2.ByTerm("same")
	assert.Equal(t, "a", p1.Name.Compact)
	assert.Equal(t, "b", p2.Name.Compact)
}

func TestResolve(t *testing.T) {
	db := testDB(t)

	tests := []struct {
		name       string
		identifier string
		want       string
		match      Match
	}{
		{"compact name", "gamma", "gamma", MatchName},
		{"term value", "solo", "beta", MatchTerm},
		{"compact name beats term", "shared", "shared", MatchName},
		{"unknown", "nonexistent-term", "unknown", MatchConservative},
		{"empty", "", "unknown", MatchConservative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, db.Resolve(tt.identifier).Name.Compact)

			p, match := db.Lookup(tt.identifier)
			assert.Equal(t, tt.match, match)
			assert.Equal(t, db.Resolve(tt.identifier), p)
		})
	}
}

func TestResolve_Unknown(t *testing.T) {
	db := testDB(t)
	got := db.Resolve("nonexistent-term")
	assert.Equal(t, Conservative("nonexistent-term"), got)
	assert.Equal(t, "nonexistent-term", got.Name.Term)
	assert.Equal(t, ColorNone{}, got.Caps.Style.SetColor)
	assert.Equal(t, UnderlineNone{}, got.Caps.Style.SetUnderline)
	assert.False(t, got.Caps.Style.ResetAll)
	assert.False(t, got.Caps.Cursor.BasicMovement)
	assert.False(t, got.Caps.Scroll.Basic)
}

func TestTermsAndGroups(t *testing.T) {
	db := testDB(t)
	assert.Equal(t, []string{"other", "shared", "solo"}, db.Terms())

	g, ok := db.Group("shared")
	require.True(t, ok)
	assert.Equal(t, "shared", g.Term)
	require.Len(t, g.Members, 2)
	assert.Equal(t, "alpha", g.Members[0].Compact)
	assert.Equal(t, "gamma", g.Members[1].Compact)
	assert.Equal(t, ColorRGB{Konsole: true}, g.MinCaps.Style.SetColor)
	assert.Equal(t, UnderlineFancy{Kitty: true}, g.MinCaps.Style.SetUnderline)
	assert.True(t, g.MinCaps.Scroll.SetRegion)

	// callers cannot change the stored group
	g.Members[0].Compact = "changed"
	again, _ := db.Group("shared")
	assert.Equal(t, "alpha", again.Members[0].Compact)

	_, ok = db.Group("missing")
	assert.False(t, ok)
}

func TestCapsMin(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Profile
		wantColor ColorCap
		wantUnder UnderlineCap
	}{
		{
			name:      "lower variant wins",
			a:         profile("a", "t", ColorRGB{Xterm: true}, UnderlineFancy{Double: true}),
			b:         profile("b", "t", ColorFixed4Bit{}, UnderlineBasic{}),
			wantColor: ColorFixed4Bit{},
			wantUnder: UnderlineBasic{},
		},
		{
			name:      "same variant intersects bits",
			a:         profile("a", "t", ColorRGB{Xterm: true, Konsole: true}, UnderlineFancy{Double: true}),
			b:         profile("b", "t", ColorRGB{Xterm: true}, UnderlineFancy{Kitty: true}),
			wantColor: ColorRGB{Xterm: true},
			wantUnder: UnderlineFancy{},
		},
		{
			name:      "none absorbs",
			a:         profile("a", "t", ColorNone{}, UnderlineNone{}),
			b:         profile("b", "t", ColorFixed8Bit{}, UnderlineFancy{Double: true, Kitty: true}),
			wantColor: ColorNone{},
			wantUnder: UnderlineNone{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := tt.a.Caps.Min(tt.b.Caps)
			ba := tt.b.Caps.Min(tt.a.Caps)
			assert.Equal(t, ab, ba)
			assert.Equal(t, tt.wantColor, ab.Style.SetColor)
			assert.Equal(t, tt.wantUnder, ab.Style.SetUnderline)
		})
	}

	a := profile("a", "t", ColorNone{}, UnderlineNone{})
	b := a
	b.Caps.Style.SetBold = false
	b.Caps.Cursor.SetStyle.XtermExtended = false
	m := a.Caps.Min(b.Caps)
	assert.False(t, m.Style.SetBold)
	assert.True(t, m.Style.ResetAll)
	assert.False(t, m.Cursor.SetStyle.XtermExtended)
	assert.True(t, m.Cursor.SetStyle.Basic)
}

func TestValidCompact(t *testing.T) {
	for _, s := range []string{"xterm", "xterm-256color", "rxvt_unicode", "A1"} {
		assert.True(t, ValidCompact(s), s)
	}
	for _, s := range []string{"", "a b", "a.b", "a/b", "é"} {
		assert.False(t, ValidCompact(s), s)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{ColorNone{}, "None"},
		{ColorFixed4Bit{}, "Fixed4Bit"},
		{ColorFixed8Bit{}, "Fixed8Bit"},
		{ColorRGB{Xterm: true, Konsole: true}, "Rgb{xterm,konsole}"},
		{ColorRGB{Konsole: true}, "Rgb{konsole}"},
		{UnderlineNone{}, "None"},
		{UnderlineBasic{}, "Basic"},
		{UnderlineFancy{Double: true}, "Fancy{double}"},
		{UnderlineFancy{}, "Fancy{}"},
		{nil, "<unset>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.in))
	}
}

func TestProfileJSON(t *testing.T) {
	p := profile("x", "t", ColorRGB{Xterm: true}, UnderlineFancy{Kitty: true})
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	style := got["caps"].(map[string]any)["style"].(map[string]any)
	assert.Equal(t, map[string]any{"Rgb": map[string]any{"xterm": true, "konsole": false}}, style["set-color"])
	assert.Equal(t, map[string]any{"Fancy": map[string]any{"double": false, "kitty": true}}, style["set-underline"])

	p = profile("x", "t", ColorFixed4Bit{}, UnderlineNone{})
	data, err = json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"set-color":"Fixed4Bit"`)
	assert.Contains(t, string(data), `"set-underline":false`)
}
