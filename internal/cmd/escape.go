package cmd

import (
	"fmt"
	"strings"
)

// Escape renders b with control bytes spelled out, so "\x1b[1m" prints as
// the eight characters `\x1b[1m` rather than turning the text bold.
func Escape(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
