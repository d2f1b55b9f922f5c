package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// console prints progress for people watching the run. Diagnostics go to
// the logger instead; this is only the narrative.
type console struct {
	out     io.Writer
	success *color.Color
	warning *color.Color
	failure *color.Color
	accent  *color.Color
}

func newConsole(out io.Writer) *console {
	return &console{
		out:     out,
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
		accent:  color.New(color.FgYellow),
	}
}

func (c *console) info(format string, args ...any) {
	c.success.Fprintf(c.out, format+"\n", args...) //nolint:errcheck // console output is best effort
}

func (c *console) line(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *console) warn(format string, args ...any) {
	c.warning.Fprintf(c.out, format+"\n", args...) //nolint:errcheck // console output is best effort
}

func (c *console) errorf(format string, args ...any) {
	c.failure.Fprintf(c.out, format+"\n", args...) //nolint:errcheck // console output is best effort
}
