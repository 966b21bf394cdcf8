package tabs

import (
	"strings"

	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// DisplayTitle fits title into width terminal cells, cutting at grapheme
// cluster boundaries and marking the cut with an ellipsis. A width below 1
// returns the title unchanged.
func DisplayTitle(title string, width int) string {
	if width < 1 || uniseg.StringWidth(title) <= width {
		return title
	}
	if width == 1 {
		return ellipsis
	}

	var b strings.Builder
	used := 0
	limit := width - 1 // room for the ellipsis
	state := -1
	rest := title
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > limit {
			break
		}
		b.WriteString(cluster)
		used += w
	}
	b.WriteString(ellipsis)
	return b.String()
}
