package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// markerSpans returns the text fragments of a rendered comment body that sit
// inside emphasized (bold) markup and outside any struck-through markup.
// Only those fragments may carry a vote or nomination marker: struck text is
// a retraction and is never extracted, even when nested inside bold.
//
// The lexer tracks nesting depth per concern instead of pattern-matching the
// raw markup, so arbitrarily nested spans behave predictably.
func markerSpans(bodyHTML string) []string {
	tok := html.NewTokenizer(strings.NewReader(bodyHTML))
	var spans []string
	bold, struck := 0, 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return spans
		case html.StartTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "strong", "b":
				bold++
			case "del", "s", "strike":
				struck++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			switch string(name) {
			case "strong", "b":
				if bold > 0 {
					bold--
				}
			case "del", "s", "strike":
				if struck > 0 {
					struck--
				}
			}
		case html.TextToken:
			if bold > 0 && struck == 0 {
				spans = append(spans, string(tok.Text()))
			}
		}
	}
}
