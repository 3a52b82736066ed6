//go:build linux

package login

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const unitName = "murmur.service"

func unitPath() string {
	config := os.Getenv("XDG_CONFIG_HOME")
	if config == "" {
		config = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(config, "systemd", "user", unitName)
}

func Enabled() bool {
	_, err := os.Stat(unitPath())
	return err == nil
}

func Enable() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	unit := fmt.Sprintf(`[Unit]
Description=murmur dictation daemon
After=graphical-session.target

[Service]
ExecStart=%s -tui=false
Restart=on-failure

[Install]
WantedBy=default.target
`, exe)

	path := unitPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create systemd user dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(unit), 0644); err != nil {
		return fmt.Errorf("write unit: %w", err)
	}

	exec.Command("systemctl", "--user", "daemon-reload").Run()
	if out, err := exec.Command("systemctl", "--user", "enable", unitName).CombinedOutput(); err != nil {
		return fmt.Errorf("systemctl enable: %w (%s)", err, out)
	}
	return nil
}

func Disable() error {
	path := unitPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	exec.Command("systemctl", "--user", "disable", unitName).Run()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove unit: %w", err)
	}
	exec.Command("systemctl", "--user", "daemon-reload").Run()
	return nil
}
