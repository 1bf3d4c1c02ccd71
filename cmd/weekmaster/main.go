package main

import (
	"log"

	"github.com/mkraemer/weekmaster/api"
	"github.com/mkraemer/weekmaster/internal/config"
	"github.com/mkraemer/weekmaster/internal/repository"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Version will be set during build with ldflags
var Version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:     "weekmaster",
		Short:   "Household task tracker API",
		Version: Version,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newInitDBCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			router := api.SetupRouter(db)
			log.Printf("listening on %s", cfg.Server.Addr())
			return router.Run(cfg.Server.Addr())
		},
	}
}

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Drop, recreate and seed the database (all data is lost)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			if err := repository.Reset(db); err != nil {
				return err
			}
			if err := repository.Seed(db); err != nil {
				return err
			}
			log.Println("database initialized")
			return nil
		},
	}
}

func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := repository.NewDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
