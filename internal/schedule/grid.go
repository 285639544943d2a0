// Package schedule turns an event window and its timed modules into
// renderable structures: an hour-by-day occupancy grid for the event
// schedule, and per-month day-highlight sets for the small calendars
// on the events page. Everything here is a pure computation over
// already-fetched records; rendering is the handlers' concern.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrUndefined is returned by BuildGrid when the event window is
// missing or inverted. Callers render a fallback message instead of a
// grid.
var ErrUndefined = errors.New("schedule: event window undefined")

// Item is a duration-bearing record placed on the grid.
type Item struct {
	Label         string
	Start         time.Time
	DurationHours float64
}

// Cell is one hour-of-day slot on one day column. Occupied and
// OutOfWindow are independent facts; occupancy takes visual
// precedence but renderers may want either.
type Cell struct {
	Labels      []string
	OutOfWindow bool
	Occupied    bool
}

// Grid is the hour-by-day occupancy table. Cells is indexed
// [hour][day]; Days holds the ordered day-column headers and Hours
// the "H:00" row labels.
type Grid struct {
	Days  []time.Time
	Hours []string
	Cells [][]Cell
}

// BuildGrid lays items out over the event window. Columns are the
// calendar days from eventStart's date, one past the day containing
// eventEnd; rows are the 24 hours of a generic day. An item is active
// in a cell iff itemStart <= cell < itemStart+duration. Cells outside
// [eventStart, eventEnd) are marked OutOfWindow, which never excludes
// items. Items with a zero start or negative duration are skipped.
func BuildGrid(eventStart, eventEnd time.Time, items []Item) (*Grid, error) {
	if eventStart.IsZero() || eventEnd.IsZero() || eventEnd.Before(eventStart) {
		return nil, ErrUndefined
	}

	dayCount := int(math.Ceil(eventEnd.Sub(eventStart).Hours()/24)) + 1

	grid := &Grid{
		Days:  make([]time.Time, dayCount),
		Hours: make([]string, 24),
		Cells: make([][]Cell, 24),
	}

	loc := eventStart.Location()
	year, month, day := eventStart.Date()
	for d := 0; d < dayCount; d++ {
		grid.Days[d] = time.Date(year, month, day+d, 0, 0, 0, 0, loc)
	}
	for h := 0; h < 24; h++ {
		grid.Hours[h] = fmt.Sprintf("%d:00", h)
	}

	for h := 0; h < 24; h++ {
		row := make([]Cell, dayCount)
		for d := 0; d < dayCount; d++ {
			cell := time.Date(year, month, day+d, h, 0, 0, 0, loc)
			row[d].OutOfWindow = cell.Before(eventStart) || !cell.Before(eventEnd)
			for _, item := range items {
				if !activeAt(item, cell) {
					continue
				}
				row[d].Occupied = true
				row[d].Labels = append(row[d].Labels, item.Label)
			}
		}
		grid.Cells[h] = row
	}

	return grid, nil
}

func activeAt(item Item, cell time.Time) bool {
	if item.Start.IsZero() || item.DurationHours < 0 {
		return false
	}
	end := item.Start.Add(time.Duration(item.DurationHours * float64(time.Hour)))
	return !cell.Before(item.Start) && cell.Before(end)
}
