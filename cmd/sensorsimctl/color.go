package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/ttacon/chalk"
)

// paint wraps s in c when w is a terminal and leaves it untouched otherwise.
func paint(w io.Writer, c chalk.Color, s string) string {
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return s
	}
	return fmt.Sprint(c, s, chalk.Reset)
}
