// Package viz renders simulation runs in the terminal.
//
// [Model] is a Bubble Tea program stepping a live world and drawing its
// links side on, projected onto the x-z plane, on a braille [Canvas].
// [Plot] charts recorded state columns with asciigraph.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Rebuild the scenario
//	+/-   - Simulation speed
//	F     - Follow the first moving body
//	T     - Cycle color themes
//	Q     - Quit
package viz
