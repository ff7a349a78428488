package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kasuboski/imdbidx/config"
	mediaio "github.com/kasuboski/imdbidx/pkg/io"
	"github.com/kasuboski/imdbidx/pkg/library"
	"github.com/kasuboski/imdbidx/pkg/logger"
	"github.com/kasuboski/imdbidx/pkg/query"
)

var renameDir string

// renameCmd interprets a filename and reports the best matching title,
// the hint a renaming front-end would act on. It never touches the
// filesystem — moving or renaming files is a separate collaborator's job.
var renameCmd = &cobra.Command{
	Use:   "rename [path]",
	Short: "suggest a title for a messy filename",
	Long: `Interpret a filename into search hints, run them against the index, and print the best match.
Prints hints only — no files are moved. With --dir, scans a directory tree for video files and
suggests a title for each one found.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatal("failed to read configuration", zap.Error(err))
		}

		ix, err := query.Open(cfg.Index.Dir)
		if err != nil {
			log.Fatal("failed to open index", zap.Error(err))
		}
		defer ix.Close()
		ix.SetDefaults(query.QueryDefaults{
			Scorer:           cfg.Query.ScorerName(),
			Similarity:       cfg.Query.Similarity,
			MinTokenOverlap:  cfg.Query.MinTokenOverlap,
			RerankTop:        cfg.Query.RerankTop,
			SimilarityWeight: cfg.Query.SimilarityWeight,
			ResultSize:       cfg.Query.ResultSize,
		})

		if renameDir != "" {
			scanner := library.New(library.FileSystem{FS: os.DirFS(renameDir), Path: renameDir}, &mediaio.MediaFileSystem{})
			files, err := scanner.Scan(cmd.Context())
			if err != nil {
				log.Fatal("failed to scan directory", zap.Error(err))
			}
			for _, f := range files {
				fmt.Printf("%s:\n", f.RelativePath)
				suggest(ix, log, f.RelativePath, f.Name)
			}
			return
		}

		if len(args) != 1 {
			log.Fatal("rename requires exactly one path argument, or --dir")
		}
		suggest(ix, log, args[0], "")
	},
}

// suggest interprets path into search hints, runs them against ix, and
// prints the best match. seriesHint is the directory-derived show name a
// batch directory scan can supply; it's used as the search text only when
// the filename itself carries none but does carry a season/episode pair
// (e.g. "S01E02.mkv").
func suggest(ix *query.Index, log *zap.SugaredLogger, path, seriesHint string) {
	hints := ix.InterpretFilename(path)
	fmt.Printf("  interpreted: text=%q year=%v season=%v episode=%v kind_guess=%s\n",
		hints.Text, hints.Year, hints.Season, hints.Episode, hints.KindGuess)

	text := hints.Text
	if text == "" && seriesHint != "" && hints.Season != nil && hints.Episode != nil {
		text = seriesHint
	}
	if text == "" {
		fmt.Println("  no text hint extracted, nothing to search")
		return
	}

	q := query.Query{Text: text}
	if hints.Year != nil {
		q.Year = hints.Year
	}

	results, err := ix.Search(q)
	if err != nil {
		log.Errorw("search failed", "path", path, "error", err)
		return
	}
	if len(results) == 0 {
		fmt.Println("  no matches")
		return
	}

	best := results[0]
	title, err := ix.Title(best.TitleID)
	if err != nil {
		log.Errorw("failed to resolve best match", "path", path, "error", err)
		return
	}

	if hints.Season != nil && hints.Episode != nil && title.Kind.IsSeries() {
		episodeTitle, err := ix.Episode(title.ID, *hints.Season, *hints.Episode)
		if err == nil {
			fmt.Printf("  suggested: %s S%02dE%02d — %s\n", title.PrimaryName, *hints.Season, *hints.Episode, episodeTitle.PrimaryName)
			return
		}
	}

	fmt.Printf("  suggested: %s (score=%.4f)\n", title.PrimaryName, best.Score)
}

func init() {
	renameCmd.Flags().StringVar(&renameDir, "dir", "", "scan a directory tree for video files and suggest a title for each")
	rootCmd.AddCommand(renameCmd)
}
