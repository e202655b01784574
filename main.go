package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aoneken/price-monitor-sub000/config"
	"github.com/Aoneken/price-monitor-sub000/models"
	"github.com/Aoneken/price-monitor-sub000/scraper/airbnb"
	"github.com/Aoneken/price-monitor-sub000/services"
	"github.com/Aoneken/price-monitor-sub000/storage"
	"github.com/Aoneken/price-monitor-sub000/utils"
)

const defaultWindowDays = 30

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Airbnb price monitor starting ===")
	logger.Info("Config — window: %s..%s | guests: %d | currency: %s | concurrency: %d | cache: %gh",
		cfg.StartDate, cfg.EndDate, cfg.Guests, cfg.Currency, cfg.MaxConcurrency, cfg.CacheHours)

	start, end, err := resolveWindow(cfg)
	if err != nil {
		logger.Error("Invalid date range: %v", err)
		os.Exit(2)
	}

	var freezeBefore *time.Time
	if cfg.FreezeBefore != "" {
		fb, err := models.ParseISODate(cfg.FreezeBefore)
		if err != nil {
			logger.Error("Invalid FREEZE_BEFORE %q: %v", cfg.FreezeBefore, err)
			os.Exit(2)
		}
		freezeBefore = &fb
	}

	catalog, err := services.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("Catalog load failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Catalog: %d listings from %s", len(catalog), cfg.CatalogPath)

	selected, err := services.SelectListings(catalog, cfg.Selection)
	if err != nil {
		logger.Error("Selection %q failed: %v", cfg.Selection, err)
		os.Exit(1)
	}
	if len(selected) == 0 {
		logger.Error("Selection %q matched no listings", cfg.Selection)
		os.Exit(1)
	}
	logger.Info("Selected %d listing(s)", len(selected))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := airbnb.NewClient(cfg, logger)
	engine := services.NewEngine(cfg, logger, client)

	var mirror storage.RowSink
	if cfg.MirrorToPostgres {
		pg, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("PostgreSQL mirror unavailable, continuing with CSV only: %v", err)
		} else {
			logger.Info("PostgreSQL mirror enabled — run %s", pg.RunID())
			mirror = pg
			defer pg.Close()
		}
	}

	processed := 0
	for _, listing := range selected {
		if ctx.Err() != nil {
			logger.Warn("Cancelled — stopping after %d listing(s)", processed)
			break
		}

		logger.Info("Processing %s (%s)...", listing.Name, listing.ID)
		result, err := engine.ProcessListing(ctx, listing, start, end)
		if err != nil {
			logger.Error("Listing %s skipped: %v", listing.ID, err)
			continue
		}

		meta := storage.Meta{
			Listing:      listing,
			Start:        result.Start,
			End:          result.End,
			Guests:       cfg.Guests,
			Generated:    result.RunStart,
			CacheHours:   cfg.CacheHours,
			FreezeBefore: freezeBefore,
			Today:        result.Today,
		}
		path := engine.OutputPath(listing)
		if err := storage.WriteListingCSV(path, meta, result.Rows, result.Existing); err != nil {
			logger.Error("CSV write failed for %s: %v", listing.ID, err)
			continue
		}
		logger.Info("Wrote %d rows → %s", len(result.Rows), path)

		if mirror != nil {
			frozen := storage.ApplyFreeze(result.Rows, result.Existing, result.Today, freezeBefore)
			if err := mirror.WriteRows(listing.ID, frozen); err != nil {
				logger.Error("PostgreSQL mirror failed for %s: %v", listing.ID, err)
			}
		}
		processed++
	}

	fmt.Printf("  Done. %d/%d listing(s) written to %s\n\n", processed, len(selected), cfg.OutputDir)
}

// resolveWindow turns the configured date strings into an inclusive run
// window, defaulting to today..today+30.
func resolveWindow(cfg *config.Config) (time.Time, time.Time, error) {
	start := models.DateOnly(time.Now())
	end := start.AddDate(0, 0, defaultWindowDays)

	if cfg.StartDate != "" {
		s, err := models.ParseISODate(cfg.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("start date %q: %w", cfg.StartDate, err)
		}
		start = s
		end = s.AddDate(0, 0, defaultWindowDays)
	}
	if cfg.EndDate != "" {
		e, err := models.ParseISODate(cfg.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end date %q: %w", cfg.EndDate, err)
		}
		end = e
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s before start %s",
			end.Format(models.ISODate), start.Format(models.ISODate))
	}
	return start, end, nil
}
