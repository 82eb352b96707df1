package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/orbitsim/internal/sim"
)

type ExportSeries struct {
	Solver          string      `json:"solver"`
	Times           []float64   `json:"times"`
	Q               [][]float64 `json:"q"`
	P               [][]float64 `json:"p"`
	Energy          []float64   `json:"energy"`
	AngularMomentum []float64   `json:"angular_momentum"`
	AreaSwept       []float64   `json:"area_swept"`
}

type ExportData struct {
	Meta   RunMetadata    `json:"meta"`
	Series []ExportSeries `json:"series"`
}

// ExportJSON writes the metadata and every solver's full series as one
// JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, results []*sim.Result) error {
	data := ExportData{
		Meta:   meta,
		Series: make([]ExportSeries, len(results)),
	}

	for i, res := range results {
		series := ExportSeries{
			Solver:          res.Solver,
			Times:           res.Times,
			Q:               make([][]float64, len(res.Q)),
			P:               make([][]float64, len(res.P)),
			Energy:          res.Energy,
			AngularMomentum: res.AngularMomentum,
			AreaSwept:       res.AreaSwept,
		}
		for k := range res.Q {
			series.Q[k] = res.Q[k]
			series.P[k] = res.P[k]
		}
		data.Series[i] = series
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
