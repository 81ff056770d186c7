package main

import (
	"flag"
	"fmt"
	"io"
)

func newFlagSet(out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("filmdw", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: filmdw [flags]\n\n")
		fmt.Fprintf(out, "Loads a film workbook or CSV into the MovieDW star schema.\n")
		fmt.Fprintf(out, "Most flags can also be set through FILMDW_* variables (e.g. FILMDW_DSN).\n\n")
		fs.PrintDefaults()
	}
	return fs
}
