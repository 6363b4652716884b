package main

import (
	"io/fs"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// captureDate returns the calendar date a photo is filed under.
// mtime is the default; exif prefers the camera's DateTime and falls back to mtime.
func captureDate(path string, d fs.DirEntry, source DateSource, loc *time.Location) (Date, error) {
	info, err := d.Info()
	if err == nil && d.Type()&fs.ModeSymlink != 0 {
		// Date a linked photo by its target
		info, err = os.Stat(path)
	}
	if err != nil {
		return Date{}, err
	}

	if source == DateFromEXIF {
		if tm, ok := exifDateTime(path); ok {
			return DateOf(tm, loc), nil
		}
	}

	return DateOf(info.ModTime(), loc), nil
}

// exifDateTime reads the EXIF DateTime tag; ok is false when the file has none
func exifDateTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF data - caller uses file time
		return time.Time{}, false
	}

	tm, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return tm, true
}
