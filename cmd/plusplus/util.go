package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"

	"github.com/cloudcmds/plusplus/errz"
)

var red = color.New(color.FgRed).SprintFunc()

// errorText returns the report of a structured error, with its source line
// and stack, or the plain message of any other error.
func errorText(err error) string {
	var structured *errz.StructuredError
	if errors.As(err, &structured) {
		return strings.TrimRight(structured.Report(), "\n")
	}
	return err.Error()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, red(errorText(err)))
	os.Exit(1)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// marshalOutput renders a value as JSON, colorized when w is a terminal and
// colors are enabled.
func marshalOutput(w io.Writer, value any) ([]byte, error) {
	if color.NoColor || !isTerminal(w) {
		return json.MarshalIndent(value, "", "  ")
	}
	return prettyjson.Marshal(value)
}

func writeOutput(w io.Writer, value any) error {
	data, err := marshalOutput(w, value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
