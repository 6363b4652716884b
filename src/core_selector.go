package main

import (
	"math/rand/v2"
	"time"
)

// FallbackWindow is how many days (including the anniversary) are searched
const FallbackWindow = 7

// Selection is the photos picked for one year offset
type Selection struct {
	YearOffset int
	Target     Date
	// MatchedDate is the day the photos came from; zero when nothing matched
	MatchedDate  Date
	FallbackDays int
	Paths        []string
}

func (s Selection) Empty() bool { return len(s.Paths) == 0 }

// YearsBack returns the same month/day n years before today.
// Feb 29 maps to Feb 28 when the target year has no leap day.
func YearsBack(today Date, n int) Date {
	year := today.Year - n
	day := today.Day
	if today.Month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return Date{Year: year, Month: today.Month, Day: day}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// SelectForYearOffset finds the first day in the fallback window that has photos,
// walking back from the anniversary, and samples up to limit of them at random.
func SelectForYearOffset(idx *PhotoIndex, yearOffset, limit int, today Date, rng *rand.Rand) Selection {
	sel := Selection{YearOffset: yearOffset, Target: YearsBack(today, yearOffset)}
	if idx == nil || limit <= 0 {
		return sel
	}

	for back := 0; back < FallbackWindow; back++ {
		day := sel.Target.AddDays(-back)
		found := idx.OnDate(day)
		if len(found) == 0 {
			continue
		}

		rng.Shuffle(len(found), func(i, j int) { found[i], found[j] = found[j], found[i] })
		if len(found) > limit {
			found = found[:limit]
		}
		sel.MatchedDate = day
		sel.FallbackDays = back
		sel.Paths = found
		return sel
	}

	return sel
}
