// Package viz renders a running experiment in the terminal.
//
// [Run] drives an experiment in the background and shows each output frame
// with Bubble Tea: the temperature and reaction progress profiles are
// plotted with asciigraph next to a lipgloss statistics panel.
//
// # Key Bindings
//
//	Q/Esc - Stop the run and quit
//	E     - Toggle the reaction progress plot
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
