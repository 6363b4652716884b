package main

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day or zone attached
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar date in loc
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// AddDays returns the date n days after d (n may be negative)
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return DateOf(t, time.UTC)
}

// Time returns midnight of d in loc
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// FolderName formats d the way daily output folders are named (DD-MM-YYYY)
func (d Date) FolderName() string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, d.Month, d.Year)
}

// PhotoEntry is one indexed photo
type PhotoEntry struct {
	Path        string
	CaptureDate Date
}

// DateSource selects where capture dates come from
type DateSource string

const (
	DateFromModTime DateSource = "mtime"
	DateFromEXIF    DateSource = "exif"
)

// Stage names the pipeline step an item was skipped in
type Stage string

const (
	StageIndex   Stage = "index"
	StageCompose Stage = "compose"
)

// SkippedFile records a file that was left out and why
type SkippedFile struct {
	Path   string
	Stage  Stage
	Reason string
}

// Phase is a coarse step of a slideshow run
type Phase int

const (
	PhaseIndexing Phase = iota
	PhaseSelecting
	PhaseComposing
	PhaseEncoding
	PhaseDone
)

func (p Phase) String() string {
	return [...]string{"Indexing", "Selecting", "Composing", "Encoding", "Done"}[p]
}

// Progress tracks a running pipeline
type Progress struct {
	Phase       Phase
	YearOffset  int
	Processed   int
	Total       int
	PhotosFound int
	CurrentFile string
}

// sendProgress never blocks the caller; a slow reader just misses updates
func sendProgress(ch chan<- Progress, p Progress) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	default:
	}
}
