package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// VideoSettings are the encoder parameters shared by every slideshow
type VideoSettings struct {
	Format  string
	Codec   string
	FPS     int
	Bitrate string
	Width   int
	Height  int
}

// Settings is the parsed, validated configuration
type Settings struct {
	PhotoFolder             string
	YearsBack               []int
	RandomPhotosLimit       int
	PhotoDisplaySeconds     int
	OutputFolder            string
	ScheduleTime            string
	EnableScheduling        bool
	EnableStartupFolderOpen bool
	DateSource              DateSource

	Video         VideoSettings
	MusicFilePath string
	TempDir       string
}

// ConfigError reports a setting that could not be parsed
type ConfigError struct {
	Section string
	Key     string
	Value   string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s.%s = %q: %v", e.Section, e.Key, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

var (
	errNotPositive = errors.New("must be a positive integer")
	errNoYears     = errors.New("needs at least one year offset")
)

// Resolve parses every value of cfg into Settings
func Resolve(cfg *ConfigFile) (*Settings, error) {
	app, vid := cfg.AppConfig, cfg.VideoConfig
	s := &Settings{
		PhotoFolder:   expandHome(strings.TrimSpace(app.PhotoFolderPath)),
		OutputFolder:  expandHome(strings.TrimSpace(app.SlideshowOutputFolder)),
		MusicFilePath: expandHome(strings.TrimSpace(cfg.AudioConfig.MusicFilePath)),
		TempDir:       expandHome(strings.TrimSpace(cfg.MoviePyConfig.MoviePyTempDir)),
	}
	fail := func(section, key, value string, err error) (*Settings, error) {
		return nil, &ConfigError{Section: section, Key: key, Value: value, Err: err}
	}

	if s.PhotoFolder == "" {
		return fail("AppConfig", "photo_folder_path", app.PhotoFolderPath, errors.New("must not be empty"))
	}
	if s.OutputFolder == "" {
		return fail("AppConfig", "slideshow_output_folder", app.SlideshowOutputFolder, errors.New("must not be empty"))
	}
	if s.TempDir == "" {
		s.TempDir = filepath.Join(s.OutputFolder, "MoviePy_temp")
	}

	var err error
	if s.YearsBack, err = parseYearsBack(app.YearsBack); err != nil {
		return fail("AppConfig", "years_back", app.YearsBack, err)
	}
	if s.RandomPhotosLimit, err = parsePositive(app.RandomPhotosLimit); err != nil {
		return fail("AppConfig", "random_photos_limit", app.RandomPhotosLimit, err)
	}
	if s.PhotoDisplaySeconds, err = parsePositive(app.PhotoDisplaySeconds); err != nil {
		return fail("AppConfig", "photo_display_seconds", app.PhotoDisplaySeconds, err)
	}

	s.ScheduleTime = strings.TrimSpace(app.ScheduleTime)
	if _, _, err := parseScheduleTime(s.ScheduleTime); err != nil {
		return fail("AppConfig", "schedule_time", app.ScheduleTime, err)
	}
	if s.EnableScheduling, err = parseBool(app.EnableScheduling); err != nil {
		return fail("AppConfig", "enable_scheduling", app.EnableScheduling, err)
	}
	if s.EnableStartupFolderOpen, err = parseBool(app.EnableStartupFolderOpen); err != nil {
		return fail("AppConfig", "enable_startup_folder_open", app.EnableStartupFolderOpen, err)
	}

	switch src := DateSource(strings.ToLower(strings.TrimSpace(app.DateSource))); src {
	case "", DateFromModTime:
		s.DateSource = DateFromModTime
	case DateFromEXIF:
		s.DateSource = DateFromEXIF
	default:
		return fail("AppConfig", "date_source", app.DateSource, errors.New("must be mtime or exif"))
	}

	s.Video.Format = strings.TrimSpace(vid.VideoFormat)
	s.Video.Codec = strings.TrimSpace(vid.VideoCodec)
	s.Video.Bitrate = strings.TrimSpace(vid.VideoBitrate)
	if s.Video.Codec == "" {
		return fail("VideoConfig", "video_codec", vid.VideoCodec, errors.New("must not be empty"))
	}
	if s.Video.FPS, err = parsePositive(vid.VideoFPS); err != nil {
		return fail("VideoConfig", "video_fps", vid.VideoFPS, err)
	}
	if s.Video.Width, s.Video.Height, err = parseResolution(vid.VideoResolution); err != nil {
		return fail("VideoConfig", "video_resolution", vid.VideoResolution, err)
	}

	return s, nil
}

// parseYearsBack parses "1, 2,,3" into [1 2 3]
func parseYearsBack(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year offset %q", part)
		}
		if n < 0 {
			return nil, fmt.Errorf("year offset %d is negative", n)
		}
		years = append(years, n)
	}
	if len(years) == 0 {
		return nil, errNoYears
	}
	return years, nil
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, errNotPositive
	}
	return n, nil
}

// parseBool accepts the usual spellings; blank is false
func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// parseResolution parses "WxH"
func parseResolution(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q, want WxH", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid width %q", parts[0])
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid height %q", parts[1])
	}
	return w, h, nil
}

// parseScheduleTime parses a 24h "HH:MM" clock time
func parseScheduleTime(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	if hour, err = strconv.Atoi(h); err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour %q", h)
	}
	if minute, err = strconv.Atoi(m); err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute %q", m)
	}
	return hour, minute, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
