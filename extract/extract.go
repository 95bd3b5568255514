// Package extract turns free-text forum comments into structured vote and
// nomination intents. Extraction never fails: text with no qualifying marker
// simply yields no intent.
package extract

import (
	"regexp"
	"strings"
)

// NoLynch is the one multi-word target accepted in traditional games.
const NoLynch = "no lynch"

// A nomination marker is an optional directive word, an optional colon, an
// optional /u/ prefix, and then the target identifier. "no lynch" is allowed
// despite containing whitespace.
var nominationRe = regexp.MustCompile(`(?:nominate|vote|lynch)?\s*:?\s*(?:/u/)?(no\s*lynch|[^.*~\s]+)`)

// A vote marker is an optional "vote" directive followed by a polarity word.
// The vocabulary must stay in sync with polarity below.
var voteRe = regexp.MustCompile(`(?:vote)?:?\s*(yay|lynch|yes|second|nay|pardon|no)`)

func polarity(word string) (approve, ok bool) {
	switch word {
	case "yay", "lynch", "yes", "second":
		return true, true
	case "nay", "pardon", "no":
		return false, true
	}
	return false, false
}

// Nomination extracts the nominated player from a comment body. Only markers
// in emphasized, non-struck text count; among several valid markers the last
// one wins, modeling a user correcting themselves mid-comment. validNames
// holds the lower-cased identifiers that may be nominated.
func Nomination(bodyHTML string, validNames map[string]bool) (string, bool) {
	var found string
	var ok bool
	for _, span := range markerSpans(bodyHTML) {
		span = strings.ToLower(strings.TrimSpace(span))
		for _, m := range nominationRe.FindAllStringSubmatch(span, -1) {
			name := normalizeName(m[1])
			if name == "" || !validNames[name] {
				continue
			}
			found, ok = name, true
		}
	}
	return found, ok
}

// Polarity extracts a yay/nay vote from a comment body. The last qualifying
// marker wins. Unrecognized tokens yield no intent.
func Polarity(bodyHTML string) (approve, ok bool) {
	for _, span := range markerSpans(bodyHTML) {
		span = strings.ToLower(strings.TrimSpace(span))
		for _, m := range voteRe.FindAllStringSubmatch(span, -1) {
			if vote, valid := polarity(strings.TrimSpace(m[1])); valid {
				approve, ok = vote, true
			}
		}
	}
	return approve, ok
}

// normalizeName collapses internal whitespace so "no   lynch" and "no lynch"
// resolve to the same identifier.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
