package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ResolveColorMode maps the --color flag onto the TTY flag passed to
// NewPrinter. "never" and "always" override detection; anything else
// (including "auto" and "") keeps the detected value.
func ResolveColorMode(colorMode string, isTTY bool) bool {
	switch colorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTTY
	}
}

// IsTTY reports whether writer is a terminal. Only *os.File can be one.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
