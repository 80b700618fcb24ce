package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"adxIndicator/config"
	"adxIndicator/internal/adapters/logger"
	"adxIndicator/internal/adapters/sqlite"
	"adxIndicator/internal/utils"
)

var (
	csvPath  = flag.String("csv", "", "CSV file with klines to import")
	symbol   = flag.String("symbol", "", "override the symbol column")
	interval = flag.String("interval", "", "override the interval column")
)

func main() {
	flag.Parse()
	if *csvPath == "" {
		log.Fatal("FATAL: -csv is required")
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogFormat, cfg.LogLevel)

	// 3. Initialize Repository
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	// 4. Read and store klines
	klines, err := utils.ReadKlinesFromCSV(*csvPath)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error reading CSV")
		log.Fatalf("Error reading CSV: %v", err)
	}
	for _, k := range klines {
		if *symbol != "" {
			k.Symbol = *symbol
		}
		if *interval != "" {
			k.Interval = *interval
		}
	}

	if err := repo.SaveKlines(context.Background(), klines); err != nil {
		appLogger.Error(context.Background(), err, "Error saving klines")
		log.Fatalf("Error saving klines: %v", err)
	}
	appLogger.Info(context.Background(), "Imported klines", map[string]interface{}{"count": len(klines), "file": *csvPath})
	fmt.Printf("Imported %d klines from %s into %s\n", len(klines), *csvPath, cfg.DBPath)
}
