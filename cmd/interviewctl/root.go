package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/mock-interview/internal/infrastructure/database"
	"github.com/johnquangdev/mock-interview/pkg/config"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

const app = "interviewctl"

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "interviewctl is an operator cli for the mock interview service",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix("INTERVIEWCTL")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		log.Fatalf("binding debug flag: %v", err)
	}
	if err := viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json")); err != nil {
		log.Fatalf("binding json flag: %v", err)
	}
}

func newLogger() (*zap.Logger, error) {
	level := "info"
	if viper.GetBool("debug") {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, JSON: viper.GetBool("json")})
}

// openDB connects to the database configured for the API service
func openDB(l *zap.Logger) (*gorm.DB, *config.Config, error) {
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := database.NewPostgresDB(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}
