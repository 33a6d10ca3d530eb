package main

import (
	"math"
	"strconv"
	"time"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// formatSize renders a byte count with binary (1024) steps. Whole values have
// no decimals ("1 KB"), everything else gets two ("1.50 KB"). Rounding
// happens before the unit is fixed, so 1048575 is "1 MB", not "1024.00 KB".
func formatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	value = math.Round(value*100) / 100
	if value >= 1024 && unit < len(sizeUnits)-1 {
		value = math.Round(value/1024*100) / 100
		unit++
	}
	if value == math.Trunc(value) {
		return strconv.FormatFloat(value, 'f', 0, 64) + " " + sizeUnits[unit]
	}
	return strconv.FormatFloat(value, 'f', 2, 64) + " " + sizeUnits[unit]
}

const listingTimeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(listingTimeLayout)
}
