package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/periscope-dbg/periscope/internal/client"
	"github.com/periscope-dbg/periscope/internal/device"
	"github.com/periscope-dbg/periscope/internal/lifecycle"
	"github.com/periscope-dbg/periscope/internal/notify"
	"github.com/periscope-dbg/periscope/internal/plugin"
	"github.com/periscope-dbg/periscope/internal/plugin/installed"
	"github.com/periscope-dbg/periscope/internal/plugin/loader"
	"github.com/periscope-dbg/periscope/internal/store"
)

// Options are the command-line level settings for the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses the default
	// location.
	ConfigPath string

	// PluginDir overrides the installed-plugin root from the config.
	PluginDir string

	// LogLevel overrides the configured log level.
	LogLevel string

	// Debug forces debug logging.
	Debug bool
}

// Application wires the plugin subsystem together: the store, the module
// loader, the installed-plugin store with its watcher and refresher, the
// connection registries, and the lifecycle controller.
type Application struct {
	logger *Logger
	config Config

	store      *store.Store
	notifier   *notify.Notifier
	resolver   *loader.Resolver
	installed  *installed.Store
	watcher    *installed.Watcher
	refresher  *installed.Refresher
	clients    *client.Registry
	devices    *device.Registry
	controller *lifecycle.Controller

	shutdownOnce sync.Once
}

// New creates the application from options.
func New(opts Options) (*Application, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.PluginDir != "" {
		cfg.Plugins.Dir = opts.PluginDir
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Debug {
		cfg.LogLevel = "debug"
	}

	logger := NewLogger(LoggerConfig{
		Level:  ParseLogLevel(cfg.LogLevel),
		Prefix: "periscope",
	})

	a := &Application{
		logger:   logger,
		config:   cfg,
		notifier: notify.New(notify.WithAsync(16)),
		resolver: loader.NewResolver(),
		clients:  client.NewRegistry(),
		devices:  device.NewRegistry(),
	}
	a.store = store.New(store.WithLogger(logger.WithComponent("store")))

	a.installed, err = installed.NewStore(cfg.Plugins.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin store: %w", err)
	}
	if err := a.installed.PruneOldVersions(cfg.Plugins.KeepVersions); err != nil {
		logger.Warn("failed to prune old plugin versions: %v", err)
	}

	a.watcher, err = installed.NewWatcher(cfg.Plugins.Dir, installed.DefaultDebounce)
	if err != nil {
		return nil, fmt.Errorf("failed to watch plugin store: %w", err)
	}
	a.refresher, err = installed.NewRefresher(a.installed, 2, a.onInstalledList)
	if err != nil {
		a.watcher.Close()
		return nil, err
	}

	conns := &connections{clients: a.clients, devices: a.devices}
	a.controller = lifecycle.NewController(a.store, a.resolver, conns,
		lifecycle.WithNotifier(a.notifier),
		lifecycle.WithLogger(logger.WithComponent("lifecycle")),
		lifecycle.WithThrottle(time.Duration(cfg.Plugins.ThrottleMs)*time.Millisecond),
		lifecycle.WithDefaultBackgroundPlugins(cfg.Plugins.DefaultBackground),
	)

	return a, nil
}

// Store returns the application store.
func (a *Application) Store() *store.Store {
	return a.store
}

// Notifier returns the user-notification sink.
func (a *Application) Notifier() *notify.Notifier {
	return a.notifier
}

// ConnectClient registers a new client connection for an app. The supported
// and background plugin id sets come from the connection handshake.
func (a *Application) ConnectClient(appName string, supported, background []string) *client.Client {
	c := client.New(appName, supported, background,
		client.WithMessageSink(&storeSink{store: a.store}))
	a.clients.Add(c)
	a.logger.Info("client connected: %s (%s)", appName, c.ID())
	return c
}

// DisconnectClient deregisters a client and stops its plugin instances.
func (a *Application) DisconnectClient(id string) {
	c, ok := a.clients.Get(id)
	if !ok {
		return
	}
	a.clients.Remove(id)
	if err := c.Close(); err != nil {
		a.logger.Warn("client teardown: %v", err)
	}
	a.logger.Info("client disconnected: %s (%s)", c.AppName(), id)
}

// ConnectDevice registers a new device.
func (a *Application) ConnectDevice(title string, supported []string) *device.Device {
	d := device.New(title, supported)
	a.devices.Add(d)
	a.logger.Info("device connected: %s (%s)", title, d.ID())
	return d
}

// DisconnectDevice deregisters a device and unloads its plugin instances.
func (a *Application) DisconnectDevice(id string) {
	d, ok := a.devices.Get(id)
	if !ok {
		return
	}
	a.devices.Remove(id)
	if err := d.Close(); err != nil {
		a.logger.Warn("device teardown: %v", err)
	}
	a.logger.Info("device disconnected: %s (%s)", d.Title(), id)
}

// Run starts the lifecycle controller, performs an initial plugin refresh,
// and relays plugin-directory changes to the refresher until the context is
// canceled.
func (a *Application) Run(ctx context.Context) error {
	a.controller.Start()

	if err := a.refresher.Refresh(); err != nil {
		a.logger.Warn("initial plugin refresh: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.watcher.Changes():
			a.logger.Debug("plugin directory changed; refreshing")
			if err := a.refresher.Refresh(); err != nil {
				a.logger.Warn("plugin refresh: %v", err)
			}
		}
	}
}

// Shutdown tears everything down. Safe to call more than once.
func (a *Application) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.controller.Stop()

		// Plugins uninstalled this session come off the disk now, so the
		// next start does not rediscover them.
		if uninstalled := a.store.GetState().Uninstalled; len(uninstalled) > 0 {
			ids := make([]string, 0, len(uninstalled))
			for id := range uninstalled {
				ids = append(ids, id)
			}
			if err := a.installed.RemoveUninstalled(ids); err != nil {
				a.logger.Warn("failed to remove uninstalled plugins: %v", err)
			}
		}

		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("watcher close: %v", err)
		}
		a.refresher.Close()

		for _, c := range a.clients.All() {
			a.DisconnectClient(c.ID())
		}
		for _, d := range a.devices.All() {
			a.DisconnectDevice(d.ID())
		}

		if err := a.resolver.Close(); err != nil {
			a.logger.Warn("resolver close: %v", err)
		}
		a.notifier.Close()
		a.logger.Info("shutdown complete")
	})
}

// onInstalledList turns a fresh installed-plugin listing into load commands.
// Plugins uninstalled this session are skipped, as are versions already
// registered. Results re-enter the lifecycle machinery only through the
// command queue.
func (a *Application) onInstalledList(list []*plugin.Details) {
	state := a.store.GetState()

	var commands []store.Command
	for _, details := range list {
		if state.Uninstalled[details.ID] {
			continue
		}
		if current, ok := state.Definitions[details.ID]; ok && current.Details().Version == details.Version {
			continue
		}
		commands = append(commands, store.LoadPluginCommand{Details: details})
	}
	if len(commands) == 0 {
		return
	}

	a.logger.Debug("enqueueing %d plugin load commands", len(commands))
	a.store.Dispatch(store.EnqueueCommands{Commands: commands})
}
