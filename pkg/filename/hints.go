// Package filename extracts structured search hints from messy media
// filenames, the way a renamer front-end turns "Thor.Ragnarok.2017.1080p..."
// into a usable query before it ever reaches the scorer.
package filename

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kasuboski/imdbidx/pkg/record"
)

var (
	seasonEpisodeRegex = regexp.MustCompile(`[Ss](\d{1,2})[._ ]?[Ee](\d{1,3})`)
	yearRegex          = regexp.MustCompile(`(?:^|[^0-9])([12]\d{3})(?:[^0-9]|$)`)
	separatorRegex     = regexp.MustCompile(`[._-]`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
)

// noiseTokens is the video-scene deny-list stripped from the filename
// before its residue becomes query text. Each pattern is matched against
// the string while its original separators (`.`, `_`, `-`) are still in
// place, so multi-part tokens like "WEB-DL" and "DD5.1" match as a unit
// before separator normalization would otherwise split them apart.
var noiseTokens = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{3,4}p\b`),
	regexp.MustCompile(`(?i)\bweb[._-]?dl\b`),
	regexp.MustCompile(`(?i)\bweb[._-]?rip\b`),
	regexp.MustCompile(`(?i)\bbluray\b`),
	regexp.MustCompile(`(?i)\bbrrip\b`),
	regexp.MustCompile(`(?i)\bhdtv\b`),
	regexp.MustCompile(`(?i)\bx26[45]\b`),
	regexp.MustCompile(`(?i)\bh26[45]\b`),
	regexp.MustCompile(`(?i)\bhevc\b`),
	regexp.MustCompile(`(?i)\bddp?5[._]1\b`),
	regexp.MustCompile(`(?i)\baac\b`),
	regexp.MustCompile(`(?i)\bac3\b`),
}

// Hints is the structured guess the interpreter extracts from one
// filename.
type Hints struct {
	Text      string
	Year      *uint16
	Season    *uint32
	Episode   *uint32
	KindGuess record.Kind
}

// Interpret applies the extraction rules (§4.9) in order: season/episode,
// year, noise stripping (against the still-punctuated string), separator
// normalization, then residue.
func Interpret(path string) Hints {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var h Hints

	if loc := seasonEpisodeRegex.FindStringSubmatchIndex(base); loc != nil {
		season, _ := strconv.ParseUint(base[loc[2]:loc[3]], 10, 32)
		episode, _ := strconv.ParseUint(base[loc[4]:loc[5]], 10, 32)
		s, e := uint32(season), uint32(episode)
		h.Season, h.Episode = &s, &e
		h.KindGuess = record.KindTVEpisode
		base = base[:loc[0]] + base[loc[1]:]
	}

	if loc := rightmostYear(base); loc != nil {
		y, _ := strconv.ParseUint(base[loc[0]:loc[1]], 10, 16)
		year := uint16(y)
		h.Year = &year
		base = base[:loc[0]] + base[loc[1]:]
	}

	for _, re := range noiseTokens {
		base = re.ReplaceAllString(base, "")
	}

	normalized := separatorRegex.ReplaceAllString(base, " ")
	normalized = whitespaceRegex.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)

	h.Text = strings.ToLower(stripReleaseGroup(normalized))
	return h
}

// rightmostYear returns the byte offsets of the last 4-digit run matching
// [12]\d{3}, not adjacent to other digits, that yearRegex finds. Matches
// are found left to right and each one consumes the non-digit on either
// side of it, so a run separated from the previous match by a single
// character is not considered: "Thor.2017.1080p" yields 2017, not 1080.
func rightmostYear(s string) []int {
	matches := yearRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return nil
	}
	last := matches[len(matches)-1]
	// Submatch group 1 is the year digits themselves, excluding the
	// non-digit guard characters the outer match consumed.
	return []int{last[2], last[3]}
}

// stripReleaseGroup drops the last word when isReleaseGroupSuffix flags it
// as a release-group tag, the convention scene releases use to credit the
// encoder after the last noise token is gone. Separators are already
// spaces when it runs, so a group name after a trailing "-" or " - " is
// dropped only when it passes that test; any other last word is kept.
func stripReleaseGroup(s string) string {
	fields := strings.Fields(s)
	if len(fields) > 1 && isReleaseGroupSuffix(fields[len(fields)-1]) {
		return strings.Join(fields[:len(fields)-1], " ")
	}
	return s
}

// isReleaseGroupSuffix heuristically flags a trailing token of 2 to 10
// ASCII letters and digits with no vowel as a scene release-group tag
// (e.g. "FGT"). Tags that contain a vowel, such as "RARBG", are not flagged.
func isReleaseGroupSuffix(word string) bool {
	if len(word) < 2 || len(word) > 10 {
		return false
	}
	for _, r := range word {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	for _, r := range strings.ToLower(word) {
		if strings.ContainsRune("aeiou", r) {
			return false
		}
	}
	return true
}
