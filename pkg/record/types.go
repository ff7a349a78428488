package record

// Kind enumerates the IMDb title types this engine understands.
type Kind string

const (
	KindMovie         Kind = "movie"
	KindShort         Kind = "short"
	KindTVMovie       Kind = "tvMovie"
	KindTVSeries      Kind = "tvSeries"
	KindTVMiniSeries  Kind = "tvMiniSeries"
	KindTVEpisode     Kind = "tvEpisode"
	KindTVShort       Kind = "tvShort"
	KindTVSpecial     Kind = "tvSpecial"
	KindTVPilot       Kind = "tvPilot"
	KindVideo         Kind = "video"
	KindVideoGame     Kind = "videoGame"
)

// knownKinds backs Kind.Valid.
var knownKinds = map[Kind]bool{
	KindMovie: true, KindShort: true, KindTVMovie: true, KindTVSeries: true,
	KindTVMiniSeries: true, KindTVEpisode: true, KindTVShort: true,
	KindTVSpecial: true, KindTVPilot: true, KindVideo: true, KindVideoGame: true,
}

// Valid reports whether k is one of the recognized title kinds.
func (k Kind) Valid() bool { return knownKinds[k] }

// IsSeries reports whether k can be the parent of a tvEpisode.
func (k Kind) IsSeries() bool { return k == KindTVSeries || k == KindTVMiniSeries }

// Title is the central IMDb entity: a movie, episode, series, or other
// title-like work.
type Title struct {
	ID             ID
	Kind           Kind
	PrimaryName    string
	OriginalName   string
	IsAdult        bool
	StartYear      *uint16
	EndYear        *uint16
	RuntimeMinutes *uint32
	Genres         []string
}

// Episode subordinates a tvEpisode Title to its parent tvSeries Title.
type Episode struct {
	ID      ID // the tvEpisode title
	ShowID  ID // the parent tvSeries/tvMiniSeries title
	Season  *uint32
	Episode *uint32
}

// AlternateName is a non-primary localized or transliterated name for a
// Title.
type AlternateName struct {
	TitleID    ID
	Name       string
	Region     string
	Language   string
	Attributes []string
	IsOriginal bool
}

// Rating is the aggregate IMDb user rating for a Title.
type Rating struct {
	ID     ID
	Rating float32
	Votes  uint32
}

// NameEntry is one searchable name variant derived from a Title at ingest:
// its primary name, its original name if distinct, and each AlternateName.
type NameEntry struct {
	ID         uint64
	TitleID    ID
	Name       string
	ScoreBoost float32
}

// Score boosts used to prefer primary names over alternates on ties (§4.6).
const (
	BoostPrimary   float32 = 1.0
	BoostOriginal  float32 = 0.8
	BoostAlternate float32 = 0.5
)

// NameEntriesForTitle derives the searchable name variants for a title and
// its alternate names, deduplicating by exact string match.
func NameEntriesForTitle(t Title, akas []AlternateName) []NameEntry {
	seen := make(map[string]bool, 2+len(akas))
	var entries []NameEntry

	add := func(name string, boost float32) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		entries = append(entries, NameEntry{TitleID: t.ID, Name: name, ScoreBoost: boost})
	}

	add(t.PrimaryName, BoostPrimary)
	add(t.OriginalName, BoostOriginal)
	for _, aka := range akas {
		add(aka.Name, BoostAlternate)
	}
	return entries
}
