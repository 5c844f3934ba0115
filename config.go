package main

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the server needs at startup. Values come from an
// optional alumnet.yaml, environment variables and command line flags, in
// increasing order of precedence.
type Config struct {
	Port        string   `mapstructure:"port"`
	DatabaseURL string   `mapstructure:"database-url"`
	JWTSecret   string   `mapstructure:"jwt-secret"`
	CORSOrigins []string `mapstructure:"cors-origins"`
	PoolCap     int      `mapstructure:"pool-cap"`
}

const (
	defaultPort = "8080"
	// Candidate pools are capped so scoring stays O(poolCap) per request.
	defaultPoolCap = 50
)

func init() {
	if err := viper.BindEnv("database-url", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("jwt-secret", "JWT_SECRET"); err != nil {
		log.Fatalf("binding JWT_SECRET environment variable: %v", err)
	}
	if err := viper.BindEnv("port", "PORT"); err != nil {
		log.Fatalf("binding PORT environment variable: %v", err)
	}

	viper.SetDefault("port", defaultPort)
	viper.SetDefault("pool-cap", defaultPoolCap)
	viper.SetDefault("cors-origins", []string{"http://localhost:3000", "http://localhost:5173"})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional; env vars and defaults cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if strings.TrimSpace(config.JWTSecret) == "" {
		config.JWTSecret = "your_secret_key_please_change_in_production"
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = "user=admin password=password dbname=alumnetdb sslmode=disable"
	}
	if config.PoolCap <= 0 {
		config.PoolCap = defaultPoolCap
	}
	return config, nil
}
