// Package viz renders simulation results in the terminal.
//
//   - [RenderSummary]: per-scheme table of conserved-quantity drifts
//   - [PlotSeries]: asciigraph chart of one diagnostic for every scheme
//   - [Canvas]: braille canvas for orbit trails
//   - [Model]: Bubble Tea program that animates a simulator
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial state
//	S     - Cycle integration scheme (resets)
//	+/-   - Zoom in/out
//	[ ]   - Halve/double steps per frame
//	Q     - Quit
package viz
