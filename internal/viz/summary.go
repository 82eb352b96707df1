package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/orbitsim/internal/sim"
)

var (
	headerCell = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff")).Padding(0, 1)
	cell       = lipgloss.NewStyle().Padding(0, 1)
)

const (
	colEnergy = 2
	colMax    = 3
	colAngMom = 4
)

// RenderSummary tabulates the conserved-quantity diagnostics of each
// result with a sparkline of its energy drift.
func RenderSummary(results []*sim.Result) string {
	drifts := make([][3]float64, len(results))
	rows := make([][]string, len(results))
	for i, r := range results {
		drifts[i] = [3]float64{r.EnergyDrift(), r.MaxEnergyDrift(), r.AngularMomentumDrift()}
		rows[i] = []string{
			r.Solver,
			r.Scheme.Label(),
			fmt.Sprintf("%.3e", drifts[i][0]),
			fmt.Sprintf("%.3e", drifts[i][1]),
			fmt.Sprintf("%.3e", drifts[i][2]),
			fmt.Sprintf("%.4f", r.TotalArea()),
			r.Elapsed.Round(time.Microsecond).String(),
			SparklineChart(Downsample(RelativeSeries(r.Energy), 20), 20),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers("solver", "scheme", "ΔE final", "ΔE max", "ΔL max", "area", "elapsed", "energy").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			if row < 0 || row >= len(drifts) {
				return cell
			}
			switch col {
			case colEnergy, colMax, colAngMom:
				return cell.Inherit(driftStyle(drifts[row][col-colEnergy]))
			}
			return cell
		})

	return t.String()
}

// RenderHeader is the one-line run description printed above the table.
func RenderHeader(s *sim.Simulator) string {
	cfg := s.Config()
	rows, _ := cfg.Rows()
	var b strings.Builder
	b.WriteString(TitleStyle.Render(strings.Join(s.Bodies().Names(), " · ")))
	b.WriteString(Subtle.Render(fmt.Sprintf("  t ∈ [%g, %g] d, dt = %g d, %d rows", cfg.T0, cfg.TN, cfg.Dt, rows)))
	return b.String()
}
