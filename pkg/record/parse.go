package record

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Null is IMDb's sentinel for an absent TSV field.
const Null = `\N`

// Reject describes one malformed row that the parser skipped rather than
// aborting the ingest over.
type Reject struct {
	Row    int
	Reason string
	Line   string
}

func (r Reject) String() string {
	return fmt.Sprintf("row %d: %s", r.Row, r.Reason)
}

// RejectSink receives rows the parser could not decode. Ingest continues
// after every Reject; only I/O errors from the underlying reader are fatal.
type RejectSink interface {
	Reject(Reject)
}

// RejectFunc adapts a function to a RejectSink.
type RejectFunc func(Reject)

func (f RejectFunc) Reject(r Reject) { f(r) }

// DiscardRejects is a RejectSink that drops every reject.
var DiscardRejects RejectSink = RejectFunc(func(Reject) {})

func splitFields(line string) []string {
	return strings.Split(line, "\t")
}

func optU16(s string) (*uint16, error) {
	if s == Null {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", s, err)
	}
	u := uint16(v)
	return &u, nil
}

func optU32(s string) (*uint32, error) {
	if s == Null {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", s, err)
	}
	u := uint32(v)
	return &u, nil
}

func boolField(s string) (bool, error) {
	switch s {
	case "0", Null, "":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("bool field %q", s)
	}
}

func splitSet(s string) []string {
	if s == Null || s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// tsvRows scans a header-terminated TSV stream, yielding each data row's
// row number (1-indexed, header is row 0) and fields. It never emits an
// error for a malformed row — callers classify that themselves — only for
// I/O failure on the underlying reader.
func tsvRows(r io.Reader) iter.Seq2[int, []string] {
	return func(yield func(int, []string) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		row := 0
		for sc.Scan() {
			if row == 0 {
				row++
				continue // header
			}
			if !yield(row, splitFields(sc.Text())) {
				return
			}
			row++
		}
	}
}

// Titles decodes title.basics.tsv rows into Title records.
func Titles(r io.Reader, sink RejectSink) iter.Seq[Title] {
	return func(yield func(Title) bool) {
		for row, f := range tsvRows(r) {
			t, err := parseTitle(f)
			if err != nil {
				sink.Reject(Reject{Row: row, Reason: err.Error(), Line: strings.Join(f, "\t")})
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

func parseTitle(f []string) (Title, error) {
	const nFields = 9
	if len(f) < nFields {
		return Title{}, fmt.Errorf("want %d fields, got %d", nFields, len(f))
	}

	id, err := ParseID(f[0])
	if err != nil {
		return Title{}, err
	}

	kind := Kind(f[1])
	if !kind.Valid() {
		return Title{}, fmt.Errorf("unknown kind %q", f[1])
	}

	isAdult, err := boolField(f[4])
	if err != nil {
		return Title{}, fmt.Errorf("isAdult: %w", err)
	}

	startYear, err := optU16(f[5])
	if err != nil {
		return Title{}, fmt.Errorf("startYear: %w", err)
	}

	endYear, err := optU16(f[6])
	if err != nil {
		return Title{}, fmt.Errorf("endYear: %w", err)
	}

	runtime, err := optU32(f[7])
	if err != nil {
		return Title{}, fmt.Errorf("runtimeMinutes: %w", err)
	}

	return Title{
		ID:             id,
		Kind:           kind,
		PrimaryName:    f[2],
		OriginalName:   f[3],
		IsAdult:        isAdult,
		StartYear:      startYear,
		EndYear:        endYear,
		RuntimeMinutes: runtime,
		Genres:         splitSet(f[8]),
	}, nil
}

// Episodes decodes title.episode.tsv rows into Episode records.
func Episodes(r io.Reader, sink RejectSink) iter.Seq[Episode] {
	return func(yield func(Episode) bool) {
		for row, f := range tsvRows(r) {
			e, err := parseEpisode(f)
			if err != nil {
				sink.Reject(Reject{Row: row, Reason: err.Error(), Line: strings.Join(f, "\t")})
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

func parseEpisode(f []string) (Episode, error) {
	const nFields = 4
	if len(f) < nFields {
		return Episode{}, fmt.Errorf("want %d fields, got %d", nFields, len(f))
	}

	id, err := ParseID(f[0])
	if err != nil {
		return Episode{}, err
	}
	showID, err := ParseID(f[1])
	if err != nil {
		return Episode{}, fmt.Errorf("tvshow id: %w", err)
	}
	if id == showID {
		return Episode{}, fmt.Errorf("episode id equals tvshow id %s", id)
	}

	season, err := optU32(f[2])
	if err != nil {
		return Episode{}, fmt.Errorf("season: %w", err)
	}
	episode, err := optU32(f[3])
	if err != nil {
		return Episode{}, fmt.Errorf("episode: %w", err)
	}

	return Episode{ID: id, ShowID: showID, Season: season, Episode: episode}, nil
}

// AlternateNames decodes title.akas.tsv rows into AlternateName records.
func AlternateNames(r io.Reader, sink RejectSink) iter.Seq[AlternateName] {
	return func(yield func(AlternateName) bool) {
		for row, f := range tsvRows(r) {
			a, err := parseAka(f)
			if err != nil {
				sink.Reject(Reject{Row: row, Reason: err.Error(), Line: strings.Join(f, "\t")})
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

func parseAka(f []string) (AlternateName, error) {
	const nFields = 8
	if len(f) < nFields {
		return AlternateName{}, fmt.Errorf("want %d fields, got %d", nFields, len(f))
	}

	id, err := ParseID(f[0])
	if err != nil {
		return AlternateName{}, err
	}
	if f[2] == "" {
		return AlternateName{}, fmt.Errorf("empty name")
	}

	region := f[3]
	if region == Null {
		region = ""
	}
	language := f[4]
	if language == Null {
		language = ""
	}

	isOriginal, err := boolField(f[7])
	if err != nil {
		return AlternateName{}, fmt.Errorf("isOriginalTitle: %w", err)
	}

	return AlternateName{
		TitleID:    id,
		Name:       f[2],
		Region:     region,
		Language:   language,
		Attributes: splitSet(f[6]),
		IsOriginal: isOriginal,
	}, nil
}

// Ratings decodes title.ratings.tsv rows into Rating records.
func Ratings(r io.Reader, sink RejectSink) iter.Seq[Rating] {
	return func(yield func(Rating) bool) {
		for row, f := range tsvRows(r) {
			rt, err := parseRating(f)
			if err != nil {
				sink.Reject(Reject{Row: row, Reason: err.Error(), Line: strings.Join(f, "\t")})
				continue
			}
			if !yield(rt) {
				return
			}
		}
	}
}

func parseRating(f []string) (Rating, error) {
	const nFields = 3
	if len(f) < nFields {
		return Rating{}, fmt.Errorf("want %d fields, got %d", nFields, len(f))
	}

	id, err := ParseID(f[0])
	if err != nil {
		return Rating{}, err
	}

	rating, err := strconv.ParseFloat(f[1], 32)
	if err != nil {
		return Rating{}, fmt.Errorf("rating: %w", err)
	}
	if rating < 0 || rating > 10 {
		return Rating{}, fmt.Errorf("rating %v out of range", rating)
	}

	votes, err := strconv.ParseUint(f[2], 10, 32)
	if err != nil {
		return Rating{}, fmt.Errorf("votes: %w", err)
	}

	return Rating{ID: id, Rating: float32(rating), Votes: uint32(votes)}, nil
}
