package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"adxIndicator/config"
	"adxIndicator/internal/domain"
	"adxIndicator/internal/ports"
	"adxIndicator/internal/strategy/indicators"
	"adxIndicator/internal/utils"
)

// TrendStrength classifies an ADX reading.
type TrendStrength string

const (
	StrengthUndefined  TrendStrength = "undefined"
	StrengthWeak       TrendStrength = "weak"        // ADX < 25
	StrengthStrong     TrendStrength = "strong"      // 25 <= ADX < 50
	StrengthVeryStrong TrendStrength = "very_strong" // ADX >= 50
)

// TrendDirection reports which directional indicator dominates.
type TrendDirection string

const (
	DirectionUndefined TrendDirection = "undefined"
	DirectionBullish   TrendDirection = "bullish"
	DirectionBearish   TrendDirection = "bearish"
	DirectionNeutral   TrendDirection = "neutral"
)

// Reading is the ADX family at a single bar.
type Reading struct {
	Time      time.Time
	ADX       float64
	PlusDI    float64
	MinusDI   float64
	Strength  TrendStrength
	Direction TrendDirection
}

// Report holds the full ADX output for one symbol and interval.
type Report struct {
	Symbol   string
	Interval string
	Window   int
	Bars     int
	ADX      indicators.Series
	PlusDI   indicators.Series
	MinusDI  indicators.Series
	Latest   Reading
}

// AnalysisService loads price bars and computes the ADX family over them.
type AnalysisService struct {
	cfg    *config.Config
	logger ports.Logger
	repo   ports.KlineRepository
}

// NewAnalysisService creates a new analysis service. repo may be nil when
// the configuration reads klines from a CSV file.
func NewAnalysisService(cfg *config.Config, logger ports.Logger, repo ports.KlineRepository) (*AnalysisService, error) {
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for AnalysisService: %w", ports.ErrConfigurationError)
	}
	if cfg.InputCSV == "" && repo == nil {
		return nil, fmt.Errorf("a kline repository is required when no input CSV is configured: %w", ports.ErrConfigurationError)
	}
	if cfg.ADXWindow <= 0 {
		return nil, fmt.Errorf("configuration ADXWindow must be positive: %w", ports.ErrConfigurationError)
	}
	return &AnalysisService{cfg: cfg, logger: logger, repo: repo}, nil
}

// LoadKlines returns the configured bars ordered oldest first.
func (s *AnalysisService) LoadKlines(ctx context.Context) ([]*domain.Kline, error) {
	var (
		klines []*domain.Kline
		err    error
	)
	if s.cfg.InputCSV != "" {
		klines, err = utils.ReadKlinesFromCSV(s.cfg.InputCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to read klines from %s: %w", s.cfg.InputCSV, err)
		}
		if s.cfg.KlineLimit > 0 && len(klines) > s.cfg.KlineLimit {
			klines = klines[len(klines)-s.cfg.KlineLimit:]
		}
	} else {
		klines, err = s.repo.FindKlines(ctx, s.cfg.Symbol, s.cfg.Interval, s.cfg.KlineLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load klines: %w", err)
		}
	}

	if len(klines) == 0 {
		return nil, fmt.Errorf("no klines for %s %s: %w", s.cfg.Symbol, s.cfg.Interval, ports.ErrNotFound)
	}
	return klines, nil
}

// Analyze loads the configured klines and computes ADX, +DI and -DI.
func (s *AnalysisService) Analyze(ctx context.Context) (*Report, error) {
	klines, err := s.LoadKlines(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load klines", map[string]interface{}{"symbol": s.cfg.Symbol, "interval": s.cfg.Interval})
		return nil, err
	}
	s.logger.Info(ctx, "Klines loaded", map[string]interface{}{"count": len(klines)})

	return s.AnalyzeKlines(ctx, klines)
}

// AnalyzeKlines computes the ADX family over klines ordered oldest first.
func (s *AnalysisService) AnalyzeKlines(ctx context.Context, klines []*domain.Kline) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	calc, err := indicators.NewADXCalculator(indicators.PriceSeriesFromKlines(klines), indicators.ADXConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: s.cfg.ADXWindow},
		FillNA:          s.cfg.ADXFillNA,
	})
	if err != nil {
		s.logger.Error(ctx, err, "Failed to prepare ADX calculation", map[string]interface{}{"bars": len(klines), "window": s.cfg.ADXWindow})
		return nil, fmt.Errorf("failed to prepare ADX calculation: %w", err)
	}

	report := &Report{
		Symbol:   s.cfg.Symbol,
		Interval: s.cfg.Interval,
		Window:   calc.Window(),
		Bars:     calc.Len(),
	}

	// The calculator is read-only after construction, so the three outputs
	// can be derived in parallel.
	var (
		wg     sync.WaitGroup
		adxErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		report.ADX, adxErr = calc.ADX()
	}()
	go func() {
		defer wg.Done()
		report.PlusDI = calc.ADXPos()
	}()
	go func() {
		defer wg.Done()
		report.MinusDI = calc.ADXNeg()
	}()
	wg.Wait()

	if adxErr != nil {
		s.logger.Error(ctx, adxErr, "Failed to calculate ADX", map[string]interface{}{"bars": len(klines), "window": s.cfg.ADXWindow})
		return nil, fmt.Errorf("failed to calculate ADX: %w", adxErr)
	}

	last := len(klines) - 1
	report.Latest = NewReading(klines[last].OpenTime, report.ADX.Last(), report.PlusDI.Last(), report.MinusDI.Last())

	s.logger.Info(ctx, "ADX calculated", map[string]interface{}{
		"symbol":    report.Symbol,
		"interval":  report.Interval,
		"bars":      report.Bars,
		"window":    report.Window,
		"adx":       report.Latest.ADX,
		"strength":  string(report.Latest.Strength),
		"direction": string(report.Latest.Direction),
	})
	return report, nil
}

// NewReading builds a Reading and classifies it.
func NewReading(ts time.Time, adx, plusDI, minusDI float64) Reading {
	return Reading{
		Time:      ts,
		ADX:       adx,
		PlusDI:    plusDI,
		MinusDI:   minusDI,
		Strength:  ClassifyStrength(adx),
		Direction: ClassifyDirection(plusDI, minusDI),
	}
}

// ClassifyStrength maps an ADX value to a trend strength.
func ClassifyStrength(adx float64) TrendStrength {
	switch {
	case math.IsNaN(adx) || math.IsInf(adx, 0):
		return StrengthUndefined
	case adx >= 50:
		return StrengthVeryStrong
	case adx >= 25:
		return StrengthStrong
	default:
		return StrengthWeak
	}
}

// ClassifyDirection compares +DI and -DI.
func ClassifyDirection(plusDI, minusDI float64) TrendDirection {
	switch {
	case math.IsNaN(plusDI) || math.IsNaN(minusDI):
		return DirectionUndefined
	case plusDI > minusDI:
		return DirectionBullish
	case minusDI > plusDI:
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}

// Readings returns one Reading per bar, starting at the first bar with a
// defined ADX value.
func (r *Report) Readings() []Reading {
	var readings []Reading
	for i := 2*r.Window - 1; i < r.ADX.Len(); i++ {
		var ts time.Time
		if r.ADX.Index != nil {
			ts = r.ADX.Index[i]
		}
		readings = append(readings, NewReading(ts, r.ADX.At(i), r.PlusDI.At(i), r.MinusDI.At(i)))
	}
	return readings
}
