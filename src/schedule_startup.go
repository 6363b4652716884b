package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// StartupScript manages a login item that opens a folder
type StartupScript struct {
	Dir     string
	Windows bool
}

// newStartupScript locates the per-user startup directory for this OS
func newStartupScript() (*StartupScript, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return nil, errors.New("APPDATA is not set")
		}
		return &StartupScript{
			Dir:     filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup"),
			Windows: true,
		}, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &StartupScript{Dir: filepath.Join(configDir, "autostart")}, nil
}

// Path is the script file this StartupScript writes
func (s *StartupScript) Path() string {
	if s.Windows {
		return filepath.Join(s.Dir, "OpenMemoriesFolder.bat")
	}
	return filepath.Join(s.Dir, "memories-open-folder.desktop")
}

func (s *StartupScript) content(targetFolder string) string {
	if s.Windows {
		return fmt.Sprintf("@echo off\r\nstart \"\" \"%s\"\r\n", targetFolder)
	}
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=Memories
Comment=Open today's slideshow folder
Exec=xdg-open "%s"
X-GNOME-Autostart-enabled=true
`, targetFolder)
}

// WriteOpenScript creates or replaces the login item so it opens targetFolder
func (s *StartupScript) WriteOpenScript(targetFolder string) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create startup dir: %w", err)
	}
	if err := os.WriteFile(s.Path(), []byte(s.content(targetFolder)), 0644); err != nil {
		return fmt.Errorf("write startup script: %w", err)
	}
	return nil
}

// DeleteOpenScript removes the login item; a missing script is fine
func (s *StartupScript) DeleteOpenScript() error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete startup script: %w", err)
	}
	return nil
}
