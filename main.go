package main

import (
	"context"
	"fmt"
	"io"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"adxIndicator/config"
	"adxIndicator/internal/adapters/logger"
	"adxIndicator/internal/adapters/sqlite"
	"adxIndicator/internal/app"
	"adxIndicator/internal/ports"
	"adxIndicator/internal/utils"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogFormat, cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": string(cfg.LogFormat)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Repository unless klines come from a CSV file
	var repo ports.KlineRepository
	if cfg.InputCSV == "" {
		sqliteRepo, err := sqlite.NewRepository(sqlite.Config{
			DBPath: cfg.DBPath,
			Logger: appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
		}
		defer func() {
			if err := sqliteRepo.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing database repository")
			}
		}()
		repo = sqliteRepo
	}

	// 4. Initialize Application Service
	svc, err := app.NewAnalysisService(cfg, appLogger, repo)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize analysis service")
		log.Fatalf("FATAL: Failed to initialize analysis service: %v", err)
	}

	// 5. Run the analysis
	report, err := svc.Analyze(ctx)
	if err != nil {
		log.Fatalf("FATAL: Analysis failed: %v", err)
	}

	// 6. Emit results
	if cfg.OutputCSV != "" {
		if err := writeReportCSV(report, cfg.OutputCSV); err != nil {
			appLogger.Error(ctx, err, "Error writing CSV")
			log.Fatalf("FATAL: Failed to write %s: %v", cfg.OutputCSV, err)
		}
		appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": cfg.OutputCSV})
		return
	}
	printReport(os.Stdout, report)
}

func writeReportCSV(report *app.Report, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return utils.WriteSeriesToCSV(file, report.ADX.Index,
		utils.SeriesColumn{Name: report.ADX.Name, Values: report.ADX.Values},
		utils.SeriesColumn{Name: report.PlusDI.Name, Values: report.PlusDI.Values},
		utils.SeriesColumn{Name: report.MinusDI.Name, Values: report.MinusDI.Values},
	)
}

func printReport(out io.Writer, report *app.Report) {
	fmt.Fprintf(out, "%s %s  window=%d  bars=%d\n\n", report.Symbol, report.Interval, report.Window, report.Bars)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Time\tADX\t+DI\t-DI\tStrength\tDirection\t")
	for _, r := range report.Readings() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Time.Format("2006-01-02 15:04"),
			formatValue(r.ADX), formatValue(r.PlusDI), formatValue(r.MinusDI),
			r.Strength, r.Direction)
	}
	w.Flush()

	latest := report.Latest
	fmt.Fprintf(out, "\nLatest: ADX %s (%s), +DI %s, -DI %s, %s\n",
		formatValue(latest.ADX), latest.Strength, formatValue(latest.PlusDI), formatValue(latest.MinusDI), latest.Direction)
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}
