package notation

import (
	"bufio"
	"io"
	"strings"
)

type line struct {
	num  int
	text string // raw text with any trailing comment removed
}

// readLines splits r into lines, dropping comments and blank lines.
func readLines(r io.Reader) ([]line, error) {
	var out []line
	sc := bufio.NewScanner(r)
	num := 0
	for sc.Scan() {
		num++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, line{num: num, text: text})
	}
	return out, sc.Err()
}

// directive splits "key: value". Keys are lower-case words.
func directive(text string) (key, value string, ok bool) {
	k, v, found := strings.Cut(text, ":")
	if !found {
		return "", "", false
	}
	k = strings.TrimSpace(k)
	if k == "" {
		return "", "", false
	}
	for _, c := range k {
		if (c < 'a' || c > 'z') && c != '_' {
			return "", "", false
		}
	}
	return k, strings.TrimSpace(v), true
}
