package capinfo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/termcaps/internal/errors"
)

// maxExpandedNodes bounds alias expansion so a small file cannot expand
// into an enormous tree.
const maxExpandedNodes = 1 << 20

// LoadFile reads and loads the dataset at path.
func LoadFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return Load(data)
}

// Load parses a dataset: a YAML sequence of records of the form
//
//	- name: {compact: xterm, pretty: Xterm, term: xterm-256color}
//	  style: {...}
//	  cursor: {...}
//	  scroll: {...}
//
// Anchors, aliases and merge keys ("<<") are expanded first, so shared
// blocks end up as independent values. Every record is then validated and
// all problems are returned together as an errors.List. data is not retained.
func Load(data []byte) (*Database, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.List{errors.NewParse(err)}
	}

	// Empty document: an empty database.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return newDatabase(nil), nil
	}

	x := &expander{}
	root, err := x.expand(doc.Content[0], 0)
	if err != nil {
		return nil, errors.List{errors.NewParse(err)}
	}

	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return newDatabase(nil), nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, errors.List{errors.NewParse(fmt.Errorf("line %d: dataset must be a sequence of terminal records, got %s", root.Line, describe(root)))}
	}

	var errs errors.List
	profiles := make([]Profile, 0, len(root.Content))
	for i, rec := range root.Content {
		d := &decoder{record: i}
		p := d.profile(rec)
		errs = append(errs, d.errs...)
		profiles = append(profiles, p)
	}

	errs = append(errs, checkNames(profiles)...)
	if len(errs) > 0 {
		return nil, errs
	}
	return newDatabase(profiles), nil
}

// expander materializes aliases and merge keys into a fresh node tree.
type expander struct {
	nodes int
}

func (x *expander) expand(n *yaml.Node, depth int) (*yaml.Node, error) {
	x.nodes++
	if x.nodes > maxExpandedNodes {
		return nil, fmt.Errorf("dataset expands to more than %d nodes", maxExpandedNodes)
	}
	if depth > 256 {
		return nil, fmt.Errorf("line %d: nesting too deep (recursive alias?)", n.Line)
	}

	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: unknown alias %q", n.Line, n.Value)
		}
		return x.expand(n.Alias, depth+1)
	case yaml.MappingNode:
		return x.expandMapping(n, depth)
	}

	out := *n
	out.Anchor = ""
	out.Content = nil
	for _, c := range n.Content {
		ec, err := x.expand(c, depth+1)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, ec)
	}
	return &out, nil
}

// expandMapping applies merge keys: explicit keys win over merged ones, and
// earlier merge sources win over later ones.
func (x *expander) expandMapping(n *yaml.Node, depth int) (*yaml.Node, error) {
	out := *n
	out.Anchor = ""
	out.Content = nil

	seen := make(map[string]bool)
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if isMergeKey(k) {
			merges = append(merges, v)
			continue
		}
		ek, err := x.expand(k, depth+1)
		if err != nil {
			return nil, err
		}
		ev, err := x.expand(v, depth+1)
		if err != nil {
			return nil, err
		}
		seen[canonicalKey(ek.Value)] = true
		out.Content = append(out.Content, ek, ev)
	}

	for _, m := range merges {
		src, err := x.expand(m, depth+1)
		if err != nil {
			return nil, err
		}
		var sources []*yaml.Node
		switch src.Kind {
		case yaml.MappingNode:
			sources = []*yaml.Node{src}
		case yaml.SequenceNode:
			sources = src.Content
		default:
			return nil, fmt.Errorf("line %d: merge key value must be a mapping or a sequence of mappings", m.Line)
		}
		for _, s := range sources {
			if s.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge key value must be a mapping or a sequence of mappings", s.Line)
			}
			for i := 0; i+1 < len(s.Content); i += 2 {
				k := s.Content[i]
				key := canonicalKey(k.Value)
				if seen[key] {
					continue
				}
				seen[key] = true
				out.Content = append(out.Content, k, s.Content[i+1])
			}
		}
	}
	return &out, nil
}

func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && (k.Tag == "!!merge" || (k.Value == "<<" && k.Style == 0))
}

// decoder turns one expanded record into a Profile, collecting errors.
type decoder struct {
	record int
	errs   errors.List
}

func (d *decoder) fail(err *errors.CapError) {
	d.errs = append(d.errs, err)
}

func (d *decoder) profile(n *yaml.Node) Profile {
	var p Profile
	fs, ok := d.fields(n, "", "name", "style", "cursor", "scroll")
	if !ok {
		return p
	}

	if nn := d.required(fs, "", "name"); nn != nil {
		p.Name = d.name(nn)
	}
	if sn := d.required(fs, "", "style"); sn != nil {
		p.Caps.Style = d.style(sn)
	}
	if cn := d.required(fs, "", "cursor"); cn != nil {
		p.Caps.Cursor = d.cursor(cn)
	}
	if sn := d.required(fs, "", "scroll"); sn != nil {
		p.Caps.Scroll = d.scroll(sn)
	}
	return p
}

func (d *decoder) name(n *yaml.Node) Name {
	var name Name
	fs, ok := d.fields(n, "name", "compact", "pretty", "term")
	if !ok {
		return name
	}
	name.Compact = d.text(fs, "name", "compact")
	if cn := fs["compact"]; cn != nil && cn.ShortTag() == "!!str" && !ValidCompact(name.Compact) {
		d.fail(errors.NewInvalidValue(d.record, "name.compact",
			fmt.Sprintf("compact name %q must consist of alphanumerics, hyphens, or underscores", name.Compact)))
	}
	name.Pretty = d.text(fs, "name", "pretty")
	name.Term = d.text(fs, "name", "term")
	return name
}

var styleFields = []string{
	"reset-all", "set-color", "unset-color",
	"set-inverse", "unset-inverse", "set-italics", "unset-italics",
	"set-bold", "set-faint", "unset-bold-faint",
	"set-underline", "unset-underline",
}

func (d *decoder) style(n *yaml.Node) StyleCaps {
	s := StyleCaps{SetColor: ColorNone{}, SetUnderline: UnderlineNone{}}
	fs, ok := d.fields(n, "style", styleFields...)
	if !ok {
		return s
	}
	s.ResetAll = d.flag(fs, "style", "reset-all")
	if cn := d.required(fs, "style", "set-color"); cn != nil {
		s.SetColor = d.color(cn, "style.set-color")
	}
	s.UnsetColor = d.flag(fs, "style", "unset-color")
	s.SetInverse = d.flag(fs, "style", "set-inverse")
	s.UnsetInverse = d.flag(fs, "style", "unset-inverse")
	s.SetItalics = d.flag(fs, "style", "set-italics")
	s.UnsetItalics = d.flag(fs, "style", "unset-italics")
	s.SetBold = d.flag(fs, "style", "set-bold")
	s.SetFaint = d.flag(fs, "style", "set-faint")
	s.UnsetBoldFaint = d.flag(fs, "style", "unset-bold-faint")
	if un := d.required(fs, "style", "set-underline"); un != nil {
		s.SetUnderline = d.underline(un, "style.set-underline")
	}
	s.UnsetUnderline = d.flag(fs, "style", "unset-underline")
	return s
}

func (d *decoder) cursor(n *yaml.Node) CursorCaps {
	var c CursorCaps
	fs, ok := d.fields(n, "cursor", "basic-movement", "set-style", "save-and-restore")
	if !ok {
		return c
	}
	c.BasicMovement = d.flag(fs, "cursor", "basic-movement")
	if sn := d.required(fs, "cursor", "set-style"); sn != nil {
		if ss, ok := d.fields(sn, "cursor.set-style", "basic", "xterm-extended"); ok {
			c.SetStyle.Basic = d.flag(ss, "cursor.set-style", "basic")
			c.SetStyle.XtermExtended = d.flag(ss, "cursor.set-style", "xterm-extended")
		}
	}
	c.SaveAndRestore = d.flag(fs, "cursor", "save-and-restore")
	return c
}

func (d *decoder) scroll(n *yaml.Node) ScrollCaps {
	var s ScrollCaps
	fs, ok := d.fields(n, "scroll", "basic", "set-region")
	if !ok {
		return s
	}
	s.Basic = d.flag(fs, "scroll", "basic")
	s.SetRegion = d.flag(fs, "scroll", "set-region")
	return s
}

const colorVariants = "false, None, Fixed4Bit, Fixed8Bit or Rgb{xterm, konsole}"

func (d *decoder) color(n *yaml.Node, path string) ColorCap {
	name, body, ok := d.variant(n, path, colorVariants)
	if !ok {
		return ColorNone{}
	}
	switch name {
	case "none":
		if body == nil {
			return ColorNone{}
		}
	case "fixed4bit":
		if body == nil {
			return ColorFixed4Bit{}
		}
	case "fixed8bit":
		if body == nil {
			return ColorFixed8Bit{}
		}
	case "rgb":
		if body == nil {
			break
		}
		sub := path + ".rgb"
		fs, ok := d.fields(body, sub, "xterm", "konsole")
		if !ok {
			return ColorNone{}
		}
		return ColorRGB{
			Xterm:   d.flag(fs, sub, "xterm"),
			Konsole: d.flag(fs, sub, "konsole"),
		}
	}
	d.fail(errors.NewInvalidVariant(d.record, path, describe(n), colorVariants))
	return ColorNone{}
}

const underlineVariants = "false, None, Basic or Fancy{double, kitty}"

func (d *decoder) underline(n *yaml.Node, path string) UnderlineCap {
	name, body, ok := d.variant(n, path, underlineVariants)
	if !ok {
		return UnderlineNone{}
	}
	switch name {
	case "none":
		if body == nil {
			return UnderlineNone{}
		}
	case "basic":
		if body == nil {
			return UnderlineBasic{}
		}
	case "fancy":
		if body == nil {
			break
		}
		sub := path + ".fancy"
		fs, ok := d.fields(body, sub, "double", "kitty")
		if !ok {
			return UnderlineNone{}
		}
		return UnderlineFancy{
			Double: d.flag(fs, sub, "double"),
			Kitty:  d.flag(fs, sub, "kitty"),
		}
	}
	d.fail(errors.NewInvalidVariant(d.record, path, describe(n), underlineVariants))
	return UnderlineNone{}
}

// variant splits a variant field into its normalized name and optional body.
// Accepted spellings:
//
//	false                  -> "none"
//	Basic                  -> "basic"
//	{Fancy: {...}}         -> "fancy", body
//	!Fancy {...}           -> "fancy", body
//
// A bare true is rejected: it does not say which encoding to use.
func (d *decoder) variant(n *yaml.Node, path, want string) (string, *yaml.Node, bool) {
	if tag := n.Tag; strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!") {
		name := variantName(tag[1:])
		switch {
		case n.Kind == yaml.MappingNode:
			return name, n, true
		case n.Kind == yaml.ScalarNode && n.Value == "":
			return name, nil, true
		}
		d.fail(errors.NewInvalidVariant(d.record, path, describe(n), want))
		return "", nil, false
	}

	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err == nil && !b {
				return "none", nil, true
			}
		case "!!str":
			return variantName(n.Value), nil, true
		}
	case yaml.MappingNode:
		if len(n.Content) == 2 && n.Content[0].Kind == yaml.ScalarNode {
			return variantName(n.Content[0].Value), n.Content[1], true
		}
	}
	d.fail(errors.NewInvalidVariant(d.record, path, describe(n), want))
	return "", nil, false
}

// variantName folds "Fixed4Bit", "fixed-4bit" and "fixed_4bit" together.
func variantName(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}

// fields checks that n is a mapping whose keys are all in allowed, and
// returns the values by canonical key. Keys may be spelled in kebab-case,
// camelCase or snake_case.
func (d *decoder) fields(n *yaml.Node, path string, allowed ...string) (map[string]*yaml.Node, bool) {
	if n.Kind != yaml.MappingNode {
		where := path
		if where == "" {
			where = "(record)"
		}
		d.fail(errors.NewInvalidValue(d.record, path, fmt.Sprintf("expected a mapping at %s, got %s", where, describe(n))))
		return nil, false
	}

	known := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		known[a] = true
	}

	out := make(map[string]*yaml.Node, len(allowed))
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		key := canonicalKey(k.Value)
		if !known[key] {
			d.fail(errors.NewUnknownField(d.record, joinPath(path, k.Value)))
			continue
		}
		if _, dup := out[key]; dup {
			d.fail(errors.NewInvalidValue(d.record, joinPath(path, key), "field given more than once"))
			continue
		}
		out[key] = v
	}
	return out, true
}

func (d *decoder) required(fs map[string]*yaml.Node, parent, key string) *yaml.Node {
	n, ok := fs[key]
	if !ok {
		d.fail(errors.NewMissingField(d.record, joinPath(parent, key)))
		return nil
	}
	return n
}

func (d *decoder) flag(fs map[string]*yaml.Node, parent, key string) bool {
	n := d.required(fs, parent, key)
	if n == nil {
		return false
	}
	var b bool
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" || n.Decode(&b) != nil {
		d.fail(errors.NewInvalidValue(d.record, joinPath(parent, key), "expected true or false, got "+describe(n)))
		return false
	}
	return b
}

func (d *decoder) text(fs map[string]*yaml.Node, parent, key string) string {
	n := d.required(fs, parent, key)
	if n == nil {
		return ""
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		d.fail(errors.NewInvalidValue(d.record, joinPath(parent, key), "expected a string, got "+describe(n)))
		return ""
	}
	return n.Value
}

// canonicalKey maps resetAll and reset_all to reset-all.
func canonicalKey(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r == '_':
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// describe summarizes a node for error messages.
func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return "null"
		}
		if n.ShortTag() == "!!str" {
			return fmt.Sprintf("%q", n.Value)
		}
		if n.Tag != "" && !strings.HasPrefix(n.Tag, "!!") {
			return strings.TrimSpace(n.Tag + " " + n.Value)
		}
		return n.Value
	case yaml.MappingNode:
		keys := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keys = append(keys, n.Content[i].Value)
		}
		return fmt.Sprintf("mapping {%s}", strings.Join(keys, ", "))
	case yaml.SequenceNode:
		return fmt.Sprintf("sequence of %d items", len(n.Content))
	}
	return "unexpected node"
}
