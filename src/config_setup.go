package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the on-disk section/key/value store. Values stay strings here;
// Resolve is the only place they are parsed.
type ConfigFile struct {
	AppConfig     AppSection     `yaml:"AppConfig" mapstructure:"AppConfig"`
	VideoConfig   VideoSection   `yaml:"VideoConfig" mapstructure:"VideoConfig"`
	AudioConfig   AudioSection   `yaml:"AudioConfig" mapstructure:"AudioConfig"`
	MoviePyConfig MoviePySection `yaml:"MoviePyConfig" mapstructure:"MoviePyConfig"`
}

type AppSection struct {
	PhotoFolderPath         string `yaml:"photo_folder_path" mapstructure:"photo_folder_path"`
	YearsBack               string `yaml:"years_back" mapstructure:"years_back"`
	RandomPhotosLimit       string `yaml:"random_photos_limit" mapstructure:"random_photos_limit"`
	PhotoDisplaySeconds     string `yaml:"photo_display_seconds" mapstructure:"photo_display_seconds"`
	SlideshowOutputFolder   string `yaml:"slideshow_output_folder" mapstructure:"slideshow_output_folder"`
	ScheduleTime            string `yaml:"schedule_time" mapstructure:"schedule_time"`
	EnableScheduling        string `yaml:"enable_scheduling" mapstructure:"enable_scheduling"`
	EnableStartupFolderOpen string `yaml:"enable_startup_folder_open" mapstructure:"enable_startup_folder_open"`
	DateSource              string `yaml:"date_source" mapstructure:"date_source"`
}

type VideoSection struct {
	VideoFormat     string `yaml:"video_format" mapstructure:"video_format"`
	VideoCodec      string `yaml:"video_codec" mapstructure:"video_codec"`
	VideoFPS        string `yaml:"video_fps" mapstructure:"video_fps"`
	VideoBitrate    string `yaml:"video_bitrate" mapstructure:"video_bitrate"`
	VideoResolution string `yaml:"video_resolution" mapstructure:"video_resolution"`
}

type AudioSection struct {
	MusicFilePath string `yaml:"music_file_path" mapstructure:"music_file_path"`
}

type MoviePySection struct {
	MoviePyTempDir string `yaml:"moviepy_temp_dir" mapstructure:"moviepy_temp_dir"`
}

// configKey is one addressable setting, used for defaults and the editor form
type configKey struct {
	Section string
	Key     string
	Label   string
	Default string
	field   func(*ConfigFile) *string
}

// configKeys lists every setting in display order
var configKeys = []configKey{
	{"AppConfig", "photo_folder_path", "Photo folder", "~/Pictures", func(c *ConfigFile) *string { return &c.AppConfig.PhotoFolderPath }},
	{"AppConfig", "years_back", "Years back (comma-separated)", "1,2,3", func(c *ConfigFile) *string { return &c.AppConfig.YearsBack }},
	{"AppConfig", "random_photos_limit", "Photos per slideshow", "10", func(c *ConfigFile) *string { return &c.AppConfig.RandomPhotosLimit }},
	{"AppConfig", "photo_display_seconds", "Seconds per photo", "3", func(c *ConfigFile) *string { return &c.AppConfig.PhotoDisplaySeconds }},
	{"AppConfig", "slideshow_output_folder", "Slideshow output folder", "~/Memories", func(c *ConfigFile) *string { return &c.AppConfig.SlideshowOutputFolder }},
	{"AppConfig", "schedule_time", "Schedule time (HH:MM)", "18:00", func(c *ConfigFile) *string { return &c.AppConfig.ScheduleTime }},
	{"AppConfig", "enable_scheduling", "Enable daily scheduling", "false", func(c *ConfigFile) *string { return &c.AppConfig.EnableScheduling }},
	{"AppConfig", "enable_startup_folder_open", "Open today's folder on login", "false", func(c *ConfigFile) *string { return &c.AppConfig.EnableStartupFolderOpen }},
	{"AppConfig", "date_source", "Date source (mtime|exif)", string(DateFromModTime), func(c *ConfigFile) *string { return &c.AppConfig.DateSource }},
	{"VideoConfig", "video_format", "Video format", "mp4", func(c *ConfigFile) *string { return &c.VideoConfig.VideoFormat }},
	{"VideoConfig", "video_codec", "Video codec", "libx264", func(c *ConfigFile) *string { return &c.VideoConfig.VideoCodec }},
	{"VideoConfig", "video_fps", "Frames per second", "24", func(c *ConfigFile) *string { return &c.VideoConfig.VideoFPS }},
	{"VideoConfig", "video_bitrate", "Video bitrate", "5000k", func(c *ConfigFile) *string { return &c.VideoConfig.VideoBitrate }},
	{"VideoConfig", "video_resolution", "Resolution (WxH)", "1080x1920", func(c *ConfigFile) *string { return &c.VideoConfig.VideoResolution }},
	{"AudioConfig", "music_file_path", "Music file", "", func(c *ConfigFile) *string { return &c.AudioConfig.MusicFilePath }},
	{"MoviePyConfig", "moviepy_temp_dir", "Temp directory (blank = <output>/MoviePy_temp)", "", func(c *ConfigFile) *string { return &c.MoviePyConfig.MoviePyTempDir }},
}

// defaultConfigFile returns a file with every key at its default
func defaultConfigFile() *ConfigFile {
	cfg := &ConfigFile{}
	for _, k := range configKeys {
		*k.field(cfg) = k.Default
	}
	return cfg
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".memories.yaml"
	}
	return filepath.Join(home, ".memories.yaml")
}

// configExists checks if config file exists
func configExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadConfig reads the YAML file, layering defaults underneath and
// MEMORIES_<SECTION>_<KEY> environment variables on top
func loadConfig(path string) (*ConfigFile, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	for _, k := range configKeys {
		v.SetDefault(k.Section+"."+k.Key, k.Default)
	}
	v.SetEnvPrefix("MEMORIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg ConfigFile
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}

// saveConfig writes the whole file; there are no partial updates
func saveConfig(path string, cfg *ConfigFile) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

var errSetupCancelled = errors.New("setup cancelled")

// runSetupWizard asks for the essential settings and saves a new config file
func runSetupWizard(path string, in io.Reader, out io.Writer) (*ConfigFile, error) {
	reader := bufio.NewReader(in)
	cfg := defaultConfigFile()

	fmt.Fprintln(out, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║                Memories - First Time Setup                     ║")
	fmt.Fprintln(out, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "This configuration will be saved to:", path)
	fmt.Fprintln(out)

	ask := func(n int, question, hint string, field *string) {
		fmt.Fprintf(out, "%d. %s\n", n, question)
		if hint != "" {
			fmt.Fprintf(out, "   (%s)\n", hint)
		}
		fmt.Fprintf(out, "   [%s]: ", *field)
		answer, _ := reader.ReadString('\n')
		if answer = strings.TrimSpace(answer); answer != "" {
			*field = answer
		}
		fmt.Fprintln(out)
	}

	ask(1, "Where are your photos?", "searched recursively for png, jpg, jpeg, bmp, gif", &cfg.AppConfig.PhotoFolderPath)
	ask(2, "Where should slideshows be written?", "one folder per day is created here", &cfg.AppConfig.SlideshowOutputFolder)
	ask(3, "How many years back?", "comma-separated, one slideshow per value", &cfg.AppConfig.YearsBack)
	ask(4, "How many photos per slideshow?", "", &cfg.AppConfig.RandomPhotosLimit)
	ask(5, "How many seconds per photo?", "", &cfg.AppConfig.PhotoDisplaySeconds)
	ask(6, "Background music file?", "leave blank for silent slideshows", &cfg.AudioConfig.MusicFilePath)

	if _, err := Resolve(cfg); err != nil {
		return nil, err
	}

	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════════")
	fmt.Fprintln(out, "Configuration Summary:")
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════════")
	fmt.Fprintf(out, "  Photos:      %s\n", cfg.AppConfig.PhotoFolderPath)
	fmt.Fprintf(out, "  Output:      %s\n", cfg.AppConfig.SlideshowOutputFolder)
	fmt.Fprintf(out, "  Years back:  %s\n", cfg.AppConfig.YearsBack)
	fmt.Fprintf(out, "  Photos/show: %s x %ss\n", cfg.AppConfig.RandomPhotosLimit, cfg.AppConfig.PhotoDisplaySeconds)
	fmt.Fprintf(out, "  Music:       %s\n", cfg.AudioConfig.MusicFilePath)
	fmt.Fprintln(out)

	fmt.Fprint(out, "Save this configuration? [Y/n]: ")
	confirm, _ := reader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "n" || confirm == "no" {
		return nil, errSetupCancelled
	}

	if err := saveConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Configuration saved to:", path)
	fmt.Fprintln(out, "Run with --gui to change the remaining settings.")
	fmt.Fprintln(out)
	return cfg, nil
}
