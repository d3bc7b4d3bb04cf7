// Package viz renders a live Taylor propagation in the terminal using
// Bubble Tea.
//
// The phase trail is drawn on a braille [Canvas]; energy drift and step
// sizes are plotted with asciigraph.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	B     - Reverse integration direction
//	R     - Reset to initial state
//	Tab   - Select parameter
//	Up/Dn - Scale selected parameter by 5%
//	?     - Show help
//	Q     - Quit
package viz
