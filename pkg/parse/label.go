package parse

// SplitLabel splits a line of the form "label: latex" into the label and the
// LaTeX text. A label is a letter followed by letters, digits and
// underscores; spaces around it are allowed. If the line has no label, the
// label is empty and text is the whole line. The offset of text in the line
// is returned as well.
func SplitLabel(line string) (label, text string, offset int) {
	i := skipSpaces(line, 0)
	begin := i
	if i < len(line) && isLetter(line[i]) {
		for i < len(line) && (isAlnum(line[i]) || line[i] == '_') {
			i++
		}
	}
	end := i
	i = skipSpaces(line, i)
	if end == begin || i >= len(line) || line[i] != ':' {
		return "", line, 0
	}
	return line[begin:end], line[i+1:], i + 1
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
