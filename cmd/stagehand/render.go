package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"stagehand/internal/output"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 22
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		return statusKindColors(kind).Sprint(base)
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColors(kind statusKind) text.Colors {
	switch kind {
	case statusOK:
		return text.Colors{text.FgGreen}
	case statusWarn:
		return text.Colors{text.FgYellow}
	case statusError:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgBlue}
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = text.FgBlue.Sprint(line)
		rule = text.FgBlue.Sprint(rule)
	}
	return []string{line, rule}
}

// resolveColor applies the console.color mode to writer.
func resolveColor(mode string, writer io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	default:
		return shouldColorize(writer)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// linePrinter writes output channel lines to a terminal, colouring the
// prefixed message kinds.
type linePrinter struct {
	w        io.Writer
	colorize bool
}

func (p linePrinter) print(lines []output.Line) {
	for _, line := range lines {
		txt := line.Text
		if p.colorize {
			if colors, ok := lineColors(line.Kind); ok {
				txt = colors.Sprint(txt)
			}
		}
		fmt.Fprint(p.w, txt)
		if !strings.HasSuffix(line.Text, "\n") {
			fmt.Fprintln(p.w)
		}
	}
}

func lineColors(kind output.Kind) (text.Colors, bool) {
	switch kind {
	case output.KindSystem:
		return text.Colors{text.FgCyan}, true
	case output.KindManager:
		return text.Colors{text.Bold, text.FgBlue}, true
	case output.KindManagerError:
		return text.Colors{text.Bold, text.FgRed}, true
	case output.KindManagerWarning:
		return text.Colors{text.FgYellow}, true
	default:
		return nil, false
	}
}
