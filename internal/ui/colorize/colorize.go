// Package colorize highlights canonical IR dumps for terminal output.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// Enabled reports whether colour output is allowed. DEXGRAPH_NO_COLOR or
// NO_COLOR turn it off.
func Enabled() bool {
	return os.Getenv("DEXGRAPH_NO_COLOR") == "" && os.Getenv("NO_COLOR") == ""
}

func getStyle() *chroma.Style {
	for _, name := range []string{"dexgraph-dark", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Text highlights a whole dump. The input is returned unchanged when
// colours are disabled or formatting fails.
func Text(text string) (string, error) {
	if !Enabled() {
		return text, nil
	}
	iterator, err := IR.Tokenise(nil, text)
	if err != nil {
		return text, err
	}
	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getStyle(), iterator); err != nil {
		return text, err
	}
	return buf.String(), nil
}

// Line highlights a single dump line.
func Line(line string) string {
	out, err := Text(line)
	if err != nil {
		return line
	}
	return out
}

// Strip removes ANSI escape sequences.
func Strip(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
