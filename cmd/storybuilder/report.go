package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type level int

const (
	levelInfo level = iota
	levelPass
	levelWarn
	levelFail
)

func (l level) tag() string {
	switch l {
	case levelPass:
		return "ok"
	case levelWarn:
		return "warn"
	case levelFail:
		return "FAIL"
	default:
		return "info"
	}
}

func (l level) colors() text.Colors {
	switch l {
	case levelPass:
		return text.Colors{text.FgGreen}
	case levelWarn:
		return text.Colors{text.FgYellow}
	case levelFail:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

// check is one line of a readiness report.
type check struct {
	label  string
	level  level
	detail string
}

const checkLabelWidth = 26

func (c check) render(color bool) string {
	tag := fmt.Sprintf("%-4s", c.level.tag())
	if color {
		tag = c.level.colors().Sprint(tag)
	}
	line := fmt.Sprintf("  %s  %-*s %s", tag, checkLabelWidth, c.label, c.detail)
	return strings.TrimRight(line, " ")
}

// report writes titled sections of checks and counts the failing ones.
type report struct {
	out      io.Writer
	color    bool
	sections int
	failures int
}

func newReport(out io.Writer) *report {
	return &report{out: out, color: isTerminal(out)}
}

func (r *report) section(title string) {
	if r.sections > 0 {
		fmt.Fprintln(r.out)
	}
	r.sections++
	heading := title
	if r.color {
		heading = text.Colors{text.Bold}.Sprint(title)
	}
	fmt.Fprintln(r.out, heading)
	fmt.Fprintln(r.out, strings.Repeat("─", text.StringWidthWithoutEscSequences(title)))
}

func (r *report) add(checks ...check) {
	for _, c := range checks {
		if c.level == levelFail {
			r.failures++
		}
		fmt.Fprintln(r.out, c.render(r.color))
	}
}

func (r *report) block(body string) {
	fmt.Fprintln(r.out, body)
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
