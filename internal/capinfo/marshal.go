package capinfo

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// record is the canonical dataset spelling of a profile.
type record struct {
	Name   Name        `yaml:"name"`
	Style  styleRecord `yaml:"style"`
	Cursor CursorCaps  `yaml:"cursor"`
	Scroll ScrollCaps  `yaml:"scroll"`
}

type styleRecord struct {
	ResetAll       bool `yaml:"reset-all"`
	SetColor       any  `yaml:"set-color"`
	UnsetColor     bool `yaml:"unset-color"`
	SetInverse     bool `yaml:"set-inverse"`
	UnsetInverse   bool `yaml:"unset-inverse"`
	SetItalics     bool `yaml:"set-italics"`
	UnsetItalics   bool `yaml:"unset-italics"`
	SetBold        bool `yaml:"set-bold"`
	SetFaint       bool `yaml:"set-faint"`
	UnsetBoldFaint bool `yaml:"unset-bold-faint"`
	SetUnderline   any  `yaml:"set-underline"`
	UnsetUnderline bool `yaml:"unset-underline"`
}

// Marshal writes db back out as a dataset with every shared block expanded.
// Loading the output yields the same profiles in the same order.
func Marshal(db *Database) ([]byte, error) {
	return MarshalProfiles(db.profiles)
}

// MarshalProfiles writes profiles as dataset records. Outputs for separate
// slices can be concatenated into one dataset.
func MarshalProfiles(profiles []Profile) ([]byte, error) {
	records := make([]record, 0, len(profiles))
	for _, p := range profiles {
		r, err := toRecord(p)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}
	return buf.Bytes(), nil
}

func toRecord(p Profile) (record, error) {
	s := p.Caps.Style
	color, err := colorValue(s.SetColor)
	if err != nil {
		return record{}, fmt.Errorf("%s: %w", p.Name.Compact, err)
	}
	underline, err := underlineValue(s.SetUnderline)
	if err != nil {
		return record{}, fmt.Errorf("%s: %w", p.Name.Compact, err)
	}
	return record{
		Name: p.Name,
		Style: styleRecord{
			ResetAll:       s.ResetAll,
			SetColor:       color,
			UnsetColor:     s.UnsetColor,
			SetInverse:     s.SetInverse,
			UnsetInverse:   s.UnsetInverse,
			SetItalics:     s.SetItalics,
			UnsetItalics:   s.UnsetItalics,
			SetBold:        s.SetBold,
			SetFaint:       s.SetFaint,
			UnsetBoldFaint: s.UnsetBoldFaint,
			SetUnderline:   underline,
			UnsetUnderline: s.UnsetUnderline,
		},
		Cursor: p.Caps.Cursor,
		Scroll: p.Caps.Scroll,
	}, nil
}

func colorValue(c ColorCap) (any, error) {
	switch c := c.(type) {
	case ColorNone:
		return false, nil
	case ColorFixed4Bit:
		return "Fixed4Bit", nil
	case ColorFixed8Bit:
		return "Fixed8Bit", nil
	case ColorRGB:
		return map[string]ColorRGB{"Rgb": c}, nil
	}
	return nil, fmt.Errorf("unknown color capability %T", c)
}

func underlineValue(u UnderlineCap) (any, error) {
	switch u := u.(type) {
	case UnderlineNone:
		return false, nil
	case UnderlineBasic:
		return "Basic", nil
	case UnderlineFancy:
		return map[string]UnderlineFancy{"Fancy": u}, nil
	}
	return nil, fmt.Errorf("unknown underline capability %T", u)
}
