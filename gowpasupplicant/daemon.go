// wpatui/gowpasupplicant/daemon.go
package gowpasupplicant

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"wpatui/poll"
)

// DaemonConfig describes how to start wpa_supplicant for one interface.
type DaemonConfig struct {
	Binary    string
	ConfigDir string
	CtrlDir   string
	CtrlGroup string
	Driver    string
	// Startup bounds how long Ensure waits for a freshly launched daemon.
	Startup poll.Budget
}

// Daemon makes sure a supplicant instance serves the client's interface.
type Daemon struct {
	cfg    DaemonConfig
	client *Client
	run    Runner
	logger *logrus.Logger
}

// NewDaemon returns a Daemon that launches processes with run.
func NewDaemon(cfg DaemonConfig, client *Client, run Runner, logger *logrus.Logger) *Daemon {
	if cfg.Binary == "" {
		cfg.Binary = "wpa_supplicant"
	}
	if cfg.Startup.Attempts <= 0 {
		cfg.Startup = poll.Budget{Attempts: 10, Interval: 500 * time.Millisecond}
	}
	if run == nil {
		run = ExecRunner
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Daemon{cfg: cfg, client: client, run: run, logger: logger}
}

// ConfigPath is the per-interface config file the daemon is started with.
func (d *Daemon) ConfigPath() string {
	return filepath.Join(d.cfg.ConfigDir, fmt.Sprintf("wpa_supplicant-%s.conf", d.client.Interface()))
}

// WriteConfigIfMissing creates the minimal daemon config. An existing file
// is left untouched.
func (d *Daemon) WriteConfigIfMissing() error {
	path := d.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.MkdirAll(d.cfg.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.cfg.ConfigDir, err)
	}
	content := fmt.Sprintf("ctrl_interface=DIR=%s GROUP=%s\nupdate_config=1\n", d.cfg.CtrlDir, d.cfg.CtrlGroup)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	d.logger.Infof("Created supplicant config %s", path)
	return nil
}

// Ensure returns nil once the daemon answers on the interface, starting it
// if needed. It returns ErrBackendUnavailable if the daemon never answers.
func (d *Daemon) Ensure(ctx context.Context) error {
	if err := d.WriteConfigIfMissing(); err != nil {
		return err
	}
	if err := d.client.Ping(ctx); err == nil {
		d.logger.Infof("wpa_supplicant already running on %s", d.client.Interface())
		return nil
	}

	args := []string{"-i", d.client.Interface(), "-c", d.ConfigPath(), "-B"}
	if d.cfg.Driver != "" {
		args = append(args, "-D", d.cfg.Driver)
	}
	if logFile := d.client.LogFile(); logFile != "" {
		if err := os.WriteFile(logFile, nil, 0o644); err != nil {
			d.logger.Warnf("Could not create event log %s: %v", logFile, err)
		}
		args = append(args, "-f", logFile)
	}
	d.logger.Infof("Starting %s %v", d.cfg.Binary, args)
	if _, err := d.run(ctx, d.cfg.Binary, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w: %w", d.cfg.Binary, ErrBackendUnavailable, err)
	}

	err := d.cfg.Startup.Until(ctx, func(ctx context.Context) (bool, error) {
		return d.client.Ping(ctx) == nil, nil
	})
	if err != nil {
		return fmt.Errorf("%s did not answer on %s: %w: %w", d.cfg.Binary, d.client.Interface(), ErrBackendUnavailable, err)
	}
	return nil
}
