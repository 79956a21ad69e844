package shell

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Evaluates the lines of definition sheets, one file after another. It
// returns the exit status.
func script(s *session, fds [3]*os.File, paths []string) int {
	exit := 0
	for _, path := range paths {
		code, err := readFileUTF8(path)
		if err != nil {
			fmt.Fprintf(fds[2], "cannot read %q: %v\n", path, err)
			return 2
		}
		if evalLines(s, sheetLines(code)) != 0 {
			exit = 2
		}
	}
	return exit
}

// Evaluates lines, continuing after errors. It returns 2 if any line failed
// and 0 otherwise.
func evalLines(s *session, lines []string) int {
	exit := 0
	for _, line := range lines {
		if s.eval(line) != nil {
			exit = 2
		}
	}
	return exit
}

// Splits a definition sheet into lines, dropping comments starting with %.
func sheetLines(code string) []string {
	var lines []string
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.TrimSpace(line), "%") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

var errSourceNotUTF8 = errors.New("source is not UTF-8")

func readFileUTF8(fname string) (string, error) {
	bytes, err := os.ReadFile(fname)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bytes) {
		return "", errSourceNotUTF8
	}
	return string(bytes), nil
}
