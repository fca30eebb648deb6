package main

import (
	"flag"
	"log"

	"github.com/ExpenseFlow-io/expenseflow/internal/api"
	"github.com/ExpenseFlow-io/expenseflow/internal/config"
	"github.com/ExpenseFlow-io/expenseflow/internal/database"
)

const version = "0.1.0"

func initializeAPI(configPath string) (*api.Api, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Init(cfg)
	if err != nil {
		return nil, err
	}

	return api.NewApi(*cfg, db)
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting ExpenseFlow API v%s with config: %s", version, *configPath)

	api, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	api.Serve()
}
