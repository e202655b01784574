package services

import (
	"context"
	"sync"
	"time"

	"github.com/Aoneken/price-monitor-sub000/models"
	"github.com/Aoneken/price-monitor-sub000/utils"
)

// scheduleBlocks walks the date list in order and emits the non-overlapping
// minimum-stay blocks that still need a quote request. Infeasible starts
// get their reason folded into the row notes.
func (e *Engine) scheduleBlocks(dates []time.Time, rows []*models.RowInfo, daymap models.DayMap) []models.PricedBlock {
	var blocks []models.PricedBlock

	// First index not yet covered by an emitted block. Dates inside an
	// emitted block never start one of their own, so no night is priced
	// from two different check-ins.
	coveredUntil := 0

	for i, d := range dates {
		if i < coveredUntil {
			continue
		}
		ri := rows[i]
		if ri.CachedRow != nil || ri.Day == nil {
			continue
		}
		if !(ri.Available && ri.Bookable && ri.CanCheckin) {
			continue
		}

		m := ri.MinStay
		if len(dates)-i < m {
			if ri.PricePerNight == nil {
				ri.Notes.Add(models.NoteInsufficientRange)
			}
			continue
		}

		if reason, ok := checkMinStayBlock(daymap, d, m); !ok {
			ri.Notes.Add(reason)
			continue
		}

		// Skip the request when every night of the block is already known.
		needed := false
		for k := 0; k < m; k++ {
			if rows[i+k].CachedRow == nil && rows[i+k].PricePerNight == nil {
				needed = true
				break
			}
		}
		if needed {
			blocks = append(blocks, models.PricedBlock{Start: d, Nights: m})
			coveredUntil = i + m
		}
	}
	return blocks
}

// checkMinStayBlock validates that a block of m nights starting at d can
// be reserved: every night present and available, check-in bookable, and
// the checkout day not explicitly blocked. An absent checkout day is
// accepted; the provider validates it at quote time.
func checkMinStayBlock(daymap models.DayMap, d time.Time, m int) (string, bool) {
	for k := 0; k < m; k++ {
		day, ok := daymap[d.AddDate(0, 0, k).Format(models.ISODate)]
		if !ok {
			return models.NoteMinstayMissingCalendar, false
		}
		if !boolVal(day.Available) {
			return models.NoteMinstayUnavailableSegment, false
		}
		if k == 0 && !boolVal(day.Bookable) {
			return models.NoteMinstayNotBookable, false
		}
	}

	if checkout, ok := daymap[d.AddDate(0, 0, m).Format(models.ISODate)]; ok {
		if checkout.AvailableForCheckout != nil && !*checkout.AvailableForCheckout {
			return models.NoteMinstayCheckoutBlocked, false
		}
	}
	return "", true
}

// executeBlocks prices the scheduled blocks through a bounded worker pool
// and fans each block price back onto its component nights. Quote requests
// run in parallel; fan-out is serialized under one mutex so the final rows
// are independent of completion order.
func (e *Engine) executeBlocks(ctx context.Context, listingID string, rows []*models.RowInfo, blocks []models.PricedBlock) {
	if len(blocks) == 0 {
		return
	}

	workers := e.cfg.MaxConcurrency
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}

	index := make(map[string]int, len(rows))
	for i, ri := range rows {
		index[ri.Date.Format(models.ISODate)] = i
	}

	pool := utils.NewWorkerPool(workers)
	var mu sync.Mutex

	for _, b := range blocks {
		block := b
		pool.Submit(ctx, func() {
			result := e.provider.FetchQuote(ctx, listingID, block.Start, block.Nights)

			mu.Lock()
			defer mu.Unlock()
			e.applyQuote(rows, index, block, result)
		})
	}
	pool.Wait()
}

// applyQuote writes one quote result into the row state. Callers hold the
// fan-out mutex. Errors land on the check-in date only, so a shorter block
// from a different check-in can still succeed at the remaining nights.
func (e *Engine) applyQuote(rows []*models.RowInfo, index map[string]int, block models.PricedBlock, result models.QuoteResult) {
	startIdx, ok := index[block.Start.Format(models.ISODate)]
	if !ok {
		return
	}

	if result.Err != "" {
		rows[startIdx].Notes.Add(result.Err)
		e.logger.Warn("[engine] quote failed for %s+%d: %s",
			block.Start.Format(models.ISODate), block.Nights, result.Err)
		return
	}

	timestamp := e.Now().UTC().Format(time.RFC3339)
	for k := 0; k < block.Nights; k++ {
		if startIdx+k >= len(rows) {
			break
		}
		ri := rows[startIdx+k]
		if ri.Day == nil || ri.CachedRow != nil {
			continue
		}

		if ri.PricePerNight == nil {
			perNight := result.PerNight
			ri.PricePerNight = &perNight
		}
		if k == 0 {
			nights := block.Nights
			total := result.Total
			ri.PriceBasisNights = &nights
			ri.TotalPrice = &total
		} else {
			ri.Notes.Add("carried_from=" + block.Start.Format(models.ISODate))
		}

		if ri.Day.AvailableForCheckin != nil && !*ri.Day.AvailableForCheckin {
			ri.Notes.Add(models.NoteNoCheckin)
		}
		if ri.Day.AvailableForCheckout != nil && !*ri.Day.AvailableForCheckout {
			ri.Notes.Add(models.NoteNoCheckout)
		}
		ri.Notes.AddAll(result.Notes)

		if ri.InsertedAt == "" {
			ri.InsertedAt = timestamp
		}
	}
}
