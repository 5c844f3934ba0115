package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app     = "alumnet"
	version = "0.3.0"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "alumnet is the alumni-network backend: profiles, matching, give-back and messaging",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Run: func(cmd *cobra.Command, _ []string) {
			serve()
		},
	}

	transitionCmd = &cobra.Command{
		Use:   "transition-students",
		Short: "Move students whose graduation has passed to the alumni role",
		Run: func(cmd *cobra.Command, _ []string) {
			runTransition()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("%s %s\n", app, version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is alumnet.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(transitionCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*Config, *zap.Logger) {
	logger, err := newLogger(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	return config, logger
}

func serve() {
	config, logger := setup()
	defer logger.Sync()

	db, err := openDB(config.DatabaseURL)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database connection established")

	setJWTSecret(config.JWTSecret)

	store := newProfileStore(db)
	engine := newMatchEngine(store, logger, config.PoolCap)
	router := newRouter(db, engine, store, config, logger)

	logger.Info("starting the alumnet backend",
		zap.String("version", version), zap.String("port", config.Port))
	if err := http.ListenAndServe(":"+config.Port, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func runTransition() {
	config, logger := setup()
	defer logger.Sync()

	db, err := openDB(config.DatabaseURL)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	transitions, err := transitionStudents(context.Background(), db, time.Now(), logger)
	if err != nil {
		logger.Fatal("transition job failed", zap.Error(err))
	}
	logger.Info("transition job finished", zap.Int("count", len(transitions)))
}
