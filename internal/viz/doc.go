// Package viz provides the terminal view of a running wave packet.
//
// The package implements a live TUI using the Bubble Tea framework:
//
//   - [Model]: steps the solver every frame and draws the density and potential
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [NewPresetPicker]: menu that opens a [Model] for a named preset
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Re-initialize the packet with the current barrier
//	←/→   - Move the barrier (the wavefunction is kept)
//	↑/↓   - Raise/lower the barrier
//	+/-   - Steps per frame
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// # Recording
//
// Recordings are saved as qtunnel.gif in the current directory.
package viz
