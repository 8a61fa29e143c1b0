//go:build !unix

package terminal

// DetectColorMode determines terminal color capability from environment
func DetectColorMode() ColorMode {
	if envTrueColor() {
		return ColorModeTrueColor
	}
	return ColorMode256
}

// resetTerminalMode is a no-op where termios does not exist
func resetTerminalMode() {}
