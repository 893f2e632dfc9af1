package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wpatui/config"
	"wpatui/controller"
	"wpatui/dhcp"
	"wpatui/gowpasupplicant"
	"wpatui/metrics"
	"wpatui/netif"
)

type rootOptions struct {
	iface       string
	autoConnect bool
	configFile  string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:           "wpatui -i <interface>",
		Short:         "Scan for and join wireless networks through wpa_supplicant.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.iface, "interface", "i", "", "wireless interface to manage")
	cmd.Flags().BoolVarP(&opts.autoConnect, "autoconnect", "a", false, "connect to a saved network without the UI and print 1 on success, 0 otherwise")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("interface")
	return cmd
}

func run(ctx context.Context, opts rootOptions, stdout io.Writer) error {
	prober, err := netif.Dial()
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer prober.Close()
	if _, err := prober.Lookup(opts.iface); err != nil {
		if errors.Is(err, netif.ErrNoInterface) {
			return &exitError{code: 2, err: fmt.Errorf("interface %s does not exist", opts.iface)}
		}
		return &exitError{code: 1, err: err}
	}

	cfg, err := config.Load(opts.configFile, opts.iface)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer closeLog()
	logger.Infof("Starting %s on %s", appName, opts.iface)
	if !prober.IsWireless(opts.iface) {
		logger.Warnf("%s does not look like a wireless interface", opts.iface)
	}

	client := gowpasupplicant.NewClient(opts.iface, gowpasupplicant.Options{
		CLI:     cfg.Supplicant.CLI,
		LogFile: cfg.EventLogPath(),
	}, logger)
	daemon := gowpasupplicant.NewDaemon(gowpasupplicant.DaemonConfig{
		Binary:    cfg.Supplicant.Binary,
		ConfigDir: cfg.Supplicant.ConfigDir,
		CtrlDir:   cfg.Supplicant.CtrlDir,
		CtrlGroup: cfg.Supplicant.CtrlGroup,
		Driver:    cfg.Supplicant.Driver,
	}, client, nil, logger)
	if err := daemon.Ensure(ctx); err != nil {
		logger.Errorf("wpa_supplicant is not available: %v", err)
		return &exitError{code: 1, err: err}
	}

	dhcpClient, err := dhcp.New(cfg.DHCP.Client, opts.iface, gowpasupplicant.ExecRunner, logger)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	m := metrics.New(opts.iface)
	if cfg.Metrics.Textfile != "" {
		defer func() {
			if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				logger.Warnf("Could not write metrics: %v", err)
			}
		}()
	}

	ctrl := controller.New(ctx, client, dhcpClient, controller.Options{
		Scan:        cfg.ScanBudget(),
		Verify:      cfg.VerifyBudget(),
		AutoConnect: cfg.AutoConnectBudget(),
		Settle:      cfg.DHCP.Settle,
		Addresses:   prober,
		Metrics:     m,
		Logger:      logger,
	})

	if opts.autoConnect {
		result := "0"
		if ctrl.AutoConnect(ctx) {
			result = "1"
		}
		fmt.Fprintln(stdout, result)
		return nil
	}

	program := tea.NewProgram(newModel(ctrl, opts.iface, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return &exitError{code: 130, err: ctx.Err(), silent: true}
		}
		logger.Errorf("UI exited with error: %v", err)
		return &exitError{code: 1, err: fmt.Errorf("error running application: %w", err)}
	}
	logger.Info("Exiting")
	return nil
}

// newLogger writes to the configured debug log; the terminal belongs to the
// UI while it runs.
func newLogger(cfg config.LogConfig) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	if cfg.File == "" {
		logger.SetOutput(io.Discard)
		return logger, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
	}
	logger.SetOutput(f)
	return logger, func() { _ = f.Close() }, nil
}
