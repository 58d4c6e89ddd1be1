package rpt

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encodings SWMM reports are written in, tried in order.
var encodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", nil},
	{"windows-1250", charmap.Windows1250},
	{"windows-1252", charmap.Windows1252},
}

// Decode converts raw report bytes to text. The first encoding that decodes
// every byte wins; its name is returned with the text.
func Decode(raw []byte) (text, enc string, err error) {
	for _, e := range encodings {
		if e.enc == nil {
			if utf8.Valid(raw) {
				return string(bytes.TrimPrefix(raw, []byte("\ufeff"))), e.name, nil
			}
			continue
		}
		out, err := e.enc.NewDecoder().Bytes(raw)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return string(out), e.name, nil
	}
	return "", "", ErrUndecodable
}

// footerLines is the number of trailing lines holding the analysis start,
// end and elapsed time.
const footerLines = 3

// Normalize splits report text into trimmed, non-empty lines and drops the
// run-time footer.
func Normalize(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) <= footerLines {
		return nil
	}
	return out[:len(out)-footerLines]
}
