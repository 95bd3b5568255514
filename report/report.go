// Package report prepares the structured data and text surfaces handed to
// the outside world: status comments, history logs and name canonicalization.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"votecount/forum"
	"votecount/game"
	"votecount/tally"
)

// FormatTime renders a unix timestamp the way posts display it.
func FormatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// Tag wraps a status-comment tag in its marker form. The marker is how the
// bot finds its own status comment under a post again.
func Tag(tag string) string {
	return "###" + strings.ToLower(tag) + "###"
}

// HasTag reports whether a comment body carries the marker for tag.
func HasTag(body, tag string) bool {
	return strings.Contains(strings.ToLower(body), Tag(tag))
}

// Namer canonicalizes display names through the game's persistent case
// cache, falling back to a platform lookup for names seen for the first
// time. Failed lookups are cached as-is so they resolve only once.
type Namer struct {
	client forum.Client
	st     *game.GameState
}

func NewNamer(client forum.Client, st *game.GameState) *Namer {
	return &Namer{client: client, st: st}
}

func (n *Namer) FixCase(ctx context.Context, name string) string {
	if display, ok := n.st.NameCase[name]; ok {
		return display
	}
	display, err := n.client.UserDisplayName(ctx, name)
	if err != nil {
		log.Warn().Err(err).Msgf("could not resolve display name for %s", name)
		display = name
	}
	n.st.NameCase[name] = display
	return display
}

// NominationReport is the render surface for one nominations thread.
type NominationReport struct {
	Tag        string
	Ranked     []tally.RankedNominee
	History    []game.HistoryEvent
	HistoryURL string
}

// VoteReport is the render surface for one direct-vote thread.
type VoteReport struct {
	Tag        string
	Target     string
	Counts     map[string]int
	Threshold  int
	History    []game.HistoryEvent
	HistoryURL string
}

// RenderNominationStatus builds the status comment body for a nominations
// thread. The tag marker leads so the comment can be found again.
func RenderNominationStatus(r NominationReport, fixCase func(string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n**Current nominations**\n\n", Tag(r.Tag))
	if len(r.Ranked) == 0 {
		b.WriteString("No nominations yet.\n")
	} else {
		b.WriteString("| Nominee | Yay | Nay | Up for trial |\n|---|---|---|---|\n")
		for _, n := range r.Ranked {
			trial := ""
			if n.UpForTrial {
				trial = "**yes**"
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", fixCase(n.Player), n.Yays, n.Nays, trial)
		}
	}
	writeRecentHistory(&b, r.History, fixCase)
	writeHistoryLink(&b, r.HistoryURL)
	return b.String()
}

// RenderVoteStatus builds the status comment body for a vote thread.
func RenderVoteStatus(r VoteReport, fixCase func(string) string) string {
	var b strings.Builder
	b.WriteString(Tag(r.Tag))
	b.WriteString("\n\n**Current votes**")
	if r.Target != "" {
		fmt.Fprintf(&b, " on %s", fixCase(r.Target))
	}
	fmt.Fprintf(&b, " (threshold %d)\n\n", r.Threshold)
	if len(r.Counts) == 0 {
		b.WriteString("No votes yet.\n")
	} else {
		for _, target := range sortedKeys(r.Counts) {
			fmt.Fprintf(&b, "- %s: %d\n", fixCase(target), r.Counts[target])
		}
	}
	writeRecentHistory(&b, r.History, fixCase)
	writeHistoryLink(&b, r.HistoryURL)
	return b.String()
}

// TrialReport is the render surface for one nominee's yay/nay trial vote.
type TrialReport struct {
	Tag        string
	Target     string
	Yays       int
	Nays       int
	History    []game.HistoryEvent
	HistoryURL string
}

// RenderTrialStatus builds the status comment body for a trial-vote thread.
func RenderTrialStatus(r TrialReport, fixCase func(string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n**Votes on %s**\n\n", Tag(r.Tag), fixCase(r.Target))
	fmt.Fprintf(&b, "- Yay: %d\n- Nay: %d\n", r.Yays, r.Nays)
	writeRecentHistory(&b, r.History, fixCase)
	writeHistoryLink(&b, r.HistoryURL)
	return b.String()
}

// RenderHistory builds the append-only event log text for a thread.
func RenderHistory(events []game.HistoryEvent, fixCase func(string) string) string {
	var b strings.Builder
	for _, e := range events {
		fmt.Fprintf(&b, "%s  %s\n", FormatTime(e.Time), historyLine(e, fixCase))
	}
	return b.String()
}

// RenderRoster is the players log: who is alive, dead and voteless.
func RenderRoster(st *game.GameState, fixCase func(string) string) string {
	var b strings.Builder
	section := func(title string, r game.Roster) {
		fmt.Fprintf(&b, "%s:\n", title)
		for _, name := range r.Names() {
			fmt.Fprintf(&b, "  %s\n", fixCase(name))
		}
	}
	section("Alive", st.Alive)
	section("Dead", st.Dead)
	section("Voteless", st.Voteless)
	return b.String()
}

// recentHistoryLimit caps how many events a status comment shows; the full
// log lives in the history file.
const recentHistoryLimit = 10

func writeRecentHistory(b *strings.Builder, events []game.HistoryEvent, fixCase func(string) string) {
	if len(events) == 0 {
		return
	}
	if len(events) > recentHistoryLimit {
		events = events[len(events)-recentHistoryLimit:]
	}
	b.WriteString("\n**Recent history**\n\n")
	for _, e := range events {
		fmt.Fprintf(b, "- %s (%s)\n", historyLine(e, fixCase), FormatTime(e.Time))
	}
}

func writeHistoryLink(b *strings.Builder, url string) {
	if url != "" {
		fmt.Fprintf(b, "\n[Full history](%s)\n", url)
	}
}

func historyLine(e game.HistoryEvent, fixCase func(string) string) string {
	subject := e.Choice
	if subject == "" {
		subject = e.Target
	}
	action := e.Action
	if e.Action == game.ActionVote && e.Choice == "" && e.Target != "" {
		// A polarity sub-vote: say which way it went.
		if e.Approve {
			action = "voted yay on"
		} else {
			action = "voted nay on"
		}
	}
	return fmt.Sprintf("%s %s %s", fixCase(e.By), action, fixCase(subject))
}

// AckText is the acknowledgement reply posted under a nominating comment.
// Sub-votes on the nominee are collected beneath it.
func AckText(nominee string, fixCase func(string) string) string {
	return fmt.Sprintf("%s has been nominated. Reply to this comment with a bold **yay** or **nay** to vote on this nomination.", fixCase(nominee))
}

// WriteLog drops a rendered log file into the game's output directory.
func WriteLog(outputDir, filename, contents string) error {
	if outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("writing log %s: %w", path, err)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}
