package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/orbitsim/internal/sim"
)

var palette = []string{"#ffcc00", "#00ccff", "#ff6688", "#88ff66", "#cc88ff", "#ff9933"}

// OrbitsSVG draws the xy-projection of every body's path in res, one
// stroke per body, on a shared square frame. Labels default to "body i".
func OrbitsSVG(w io.Writer, res *sim.Result, labels []string, size int) error {
	if res.Len() < 2 {
		return fmt.Errorf("export: need at least 2 rows, have %d", res.Len())
	}
	if size <= 0 {
		size = 600
	}

	n := res.Q[0].Bodies()
	paths := make([][][3]float64, n)
	for i := range paths {
		paths[i] = res.Body(i)
	}

	// Square bounds keep orbits circular.
	minX, maxX := paths[0][0][0], paths[0][0][0]
	minY, maxY := paths[0][0][1], paths[0][0][1]
	for _, path := range paths {
		for _, p := range path {
			minX, maxX = min(minX, p[0]), max(maxX, p[0])
			minY, maxY = min(minY, p[1]), max(maxY, p[1])
		}
	}
	extent := max(maxX-minX, maxY-minY)
	if extent == 0 {
		extent = 1
	}
	extent *= 1.2
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	scale := float64(size) / extent

	project := func(x, y float64) (float64, float64) {
		return float64(size)/2 + (x-cx)*scale, float64(size)/2 - (y-cy)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size)

	for i, path := range paths {
		color := palette[i%len(palette)]
		sb.WriteString(`<path fill="none" stroke="` + color + `" stroke-width="1.5" d="M`)
		for k, p := range path {
			x, y := project(p[0], p[1])
			if k == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		label := fmt.Sprintf("body %d", i)
		if i < len(labels) {
			label = labels[i]
		}
		last := path[len(path)-1]
		x, y := project(last[0], last[1])
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="12">%s</text>
`, x, y, color, x+6, y-6, color, label)
	}

	fmt.Fprintf(&sb, `<text x="8" y="%d" fill="#666688" font-family="monospace" font-size="12">%s, t = %g d</text>
</svg>
`, size-8, res.Solver, res.Times[res.Len()-1])

	_, err := io.WriteString(w, sb.String())
	return err
}
