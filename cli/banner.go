// Package cli holds the terminal helpers used by the fsm demo: boxed
// banners and interactive prompts.
package cli

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"
)

const (
	AlignLeft = iota
	AlignCenter
	AlignRight

	bannerPadding   = 2
	dividerPadding  = 2
	truncateReserve = 1
	halfDivisor     = 2
)

const DefaultTerminalWidth = 80

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	return fmt.Sprintf("%s%s%s\n", dividerLeft, strings.Repeat(dividerMiddle, width-dividerPadding), dividerRight)
}

// Banner draws s inside a box of the given width. Lines longer than the
// box are truncated with an ellipsis. An unknown alignment or a
// non-positive width yields "".
func Banner(s string, width int, alignment int) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	if width <= 0 {
		return ""
	}

	pad := padFunc(alignment)
	if pad == nil {
		return ""
	}

	inner := width - bannerPadding
	parts := []string{boxTopLeft + strings.Repeat(boxTop, inner) + boxTopRight}

	for _, l := range lines {
		parts = append(parts, boxSide+pad(l, inner)+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n")
}

func padFunc(alignment int) func(string, int) string {
	switch alignment {
	case AlignLeft:
		return func(text string, width int) string {
			str, diff := fit(text, width)

			return str + spaces(diff)
		}
	case AlignCenter:
		return func(text string, width int) string {
			str, diff := fit(text, width)
			left := diff / halfDivisor

			return spaces(left) + str + spaces(diff-left)
		}
	case AlignRight:
		return func(text string, width int) string {
			str, diff := fit(text, width)

			return spaces(diff) + str
		}
	default:
		return nil
	}
}

// fit truncates text to width graphic runes and reports the padding left over.
func fit(text string, width int) (string, int) {
	length := countGraphic(text)
	if length <= width {
		return text, width - length
	}

	str, n := truncateGraphic(text, width-truncateReserve)

	return str + ellipsis, width - n - truncateReserve
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}

	return strings.Repeat(" ", n)
}

func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

func truncateGraphic(s string, n int) (string, int) {
	var sb strings.Builder

	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			if count >= n {
				break
			}

			count++
		}

		sb.WriteRune(r)
	}

	return sb.String(), count
}
