package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kasuboski/imdbidx/pkg/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imdbidx",
	Short: "imdbidx cli",
	Long:  `imdbidx builds and queries an offline IMDb title search index`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
}

// initConfig sets viper configurations and default values
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("IMDBIDX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	viper.SetDefault("source.titles", "title.basics.tsv")
	viper.SetDefault("source.episodes", "title.episode.tsv")
	viper.SetDefault("source.akas", "title.akas.tsv")
	viper.SetDefault("source.ratings", "title.ratings.tsv")

	viper.SetDefault("index.dir", "./index")
	viper.SetDefault("index.spill_budget_mb", 128)

	viper.SetDefault("ngram.size", 3)

	viper.SetDefault("query.scorer", "okapi-bm25")
	viper.SetDefault("query.similarity", "levenshtein")
	viper.SetDefault("query.min_token_overlap", 0.3)
	viper.SetDefault("query.rerank_top", 50)
	viper.SetDefault("query.similarity_weight", 0.5)
	viper.SetDefault("query.result_size", 30)

	_ = logger.Get()
}
