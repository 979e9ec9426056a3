// Package viz renders transmission loss in the terminal.
//
//   - [RangePlot]: loss against range along one bearing (asciigraph)
//   - [Footprint]: Braille plan view of where loss stays under a threshold
//   - [Heatmap]: bearing/range field coloured through a [Theme]
//   - [Progress]: a propagator observer that draws a progress bar
//   - [Browser]: an interactive viewer for stored runs
//
// # Key Bindings
//
//	←/→  - Previous/next bearing
//	↑/↓  - Shallower/deeper receiver
//	V    - Cycle plot, map and heatmap
//	T    - Cycle colour themes
//	+/-  - Raise/lower the footprint threshold
//	Q    - Quit
package viz
