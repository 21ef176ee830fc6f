package spoiler

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
)

var (
	colorHeading = color.Style{color.FgCyan, color.OpBold}
	colorLevel   = color.Style{color.FgYellow}
	colorKey     = color.Style{color.FgMagenta}
	colorItem    = color.Style{color.FgGreen, color.OpBold}
	colorSubtle  = color.Style{color.FgGray}
)

// Summary writes a short console overview of doc: hash, level order and
// the first spheres of progression. Styles are applied only when colored
// is set.
func Summary(w io.Writer, doc *Document, colored bool) error {
	paint := func(s color.Style, text string) string {
		if !colored {
			return text
		}
		return s.Sprint(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d  %s %s  (%d attempts)\n",
		paint(colorHeading, "seed"), doc.Seed,
		paint(colorHeading, "hash"), doc.Hash,
		doc.Attempts,
	)
	if len(doc.StartingItems) > 0 {
		fmt.Fprintf(&b, "%s %s\n", paint(colorHeading, "start:"), strings.Join(doc.StartingItems, ", "))
	}
	b.WriteString(paint(colorHeading, "levels:") + "\n")
	for _, s := range doc.Slots {
		fmt.Fprintf(&b, "  %d. %-8s %s %s\n",
			s.Slot,
			paint(colorLevel, s.Level),
			paint(colorKey, s.Key),
			paint(colorSubtle, fmt.Sprintf("(%d GB)", s.EntryGBs)),
		)
	}

	const shown = 3
	for i, sp := range doc.Spheres {
		if i == shown {
			fmt.Fprintf(&b, "  %s\n", paint(colorSubtle, fmt.Sprintf("... %d more spheres", len(doc.Spheres)-shown)))
			break
		}
		names := make([]string, 0, len(sp.Items))
		for _, it := range sp.Items {
			names = append(names, paint(colorItem, it.Item)+" @ "+it.Location)
		}
		fmt.Fprintf(&b, "%s %s\n", paint(colorHeading, fmt.Sprintf("sphere %d:", sp.Index)), strings.Join(names, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
