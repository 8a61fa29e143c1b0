// Package terminal prepares the tty for the tcell screen and restores it after a crash
//
// Color capability is detected from the environment and handed to tcell through
// COLORTERM and TCELL_TRUECOLOR. EmergencyReset writes the raw ANSI sequences
// that undo alternate screen, hidden cursor and raw mode when tcell never got
// to call Fini.
package terminal
