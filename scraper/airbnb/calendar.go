package airbnb

import (
	"encoding/json"
	"fmt"

	"github.com/Aoneken/price-monitor-sub000/models"
)

type calendarResponse struct {
	Data struct {
		Merlin struct {
			PdpAvailabilityCalendar struct {
				CalendarMonths []struct {
					Days []calendarDayJSON `json:"days"`
				} `json:"calendarMonths"`
			} `json:"pdpAvailabilityCalendar"`
		} `json:"merlin"`
	} `json:"data"`
}

type calendarDayJSON struct {
	CalendarDate         string `json:"calendarDate"`
	Available            *bool  `json:"available"`
	AvailableForCheckin  *bool  `json:"availableForCheckin"`
	AvailableForCheckout *bool  `json:"availableForCheckout"`
	Bookable             *bool  `json:"bookable"`
	MinNights            *int   `json:"minNights"`
	MaxNights            *int   `json:"maxNights"`
}

// FlattenCalendar converts the month-structured calendar response into a
// flat date-keyed DayMap. Days without a calendarDate are dropped; absent
// fields stay absent rather than becoming false.
func FlattenCalendar(body []byte) (models.DayMap, error) {
	var resp calendarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("calendar json: %w", err)
	}

	daymap := make(models.DayMap)
	for _, month := range resp.Data.Merlin.PdpAvailabilityCalendar.CalendarMonths {
		for _, day := range month.Days {
			if day.CalendarDate == "" {
				continue
			}
			daymap[day.CalendarDate] = &models.CalendarDay{
				Available:            day.Available,
				AvailableForCheckin:  day.AvailableForCheckin,
				AvailableForCheckout: day.AvailableForCheckout,
				Bookable:             day.Bookable,
				MinNights:            day.MinNights,
				MaxNights:            day.MaxNights,
			}
		}
	}
	return daymap, nil
}
