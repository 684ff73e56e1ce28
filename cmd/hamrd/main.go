// Command hamrd is the launcher daemon: it wires the configuration,
// frecency store, search engine, plugin subsystem, core engine, and RPC
// server together and runs until signalled to stop (spec.md §2's
// dependency order: Utilities -> Configuration -> Frecency store ->
// Search engine -> Plugin subsystem -> Engine -> RPC server).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/hamr-launcher/hamr/internal/config"
	"github.com/hamr-launcher/hamr/internal/engine"
	"github.com/hamr-launcher/hamr/internal/frecency"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/plugin"
	"github.com/hamr-launcher/hamr/internal/rpc"
	"github.com/hamr-launcher/hamr/internal/util"
	"github.com/sirupsen/logrus"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging and plugin verbose mode")
	testMode := flag.Bool("test-mode", false, "signal plugin handlers to return mock data")
	socketOverride := flag.String("socket", "", "override the Unix socket path")
	flag.Parse()

	level := logrus.InfoLevel
	if *debug {
		level = logrus.DebugLevel
	}
	logging.Configure(level, os.Stderr)
	log := logging.WithComponent("hamrd")

	dirs, err := config.ResolveDirs()
	if err != nil {
		log.WithError(err).Error("cannot resolve XDG directories")
		os.Exit(1)
	}
	if err := os.MkdirAll(dirs.ConfigDir, 0o755); err != nil {
		log.WithError(err).Error("cannot create config directory")
		os.Exit(1)
	}
	if err := os.MkdirAll(dirs.DataDir, 0o755); err != nil {
		log.WithError(err).Error("cannot create data directory")
		os.Exit(1)
	}
	if err := os.MkdirAll(dirs.CacheDir, 0o755); err != nil {
		log.WithError(err).Error("cannot create cache directory")
		os.Exit(1)
	}
	if err := stampLaunchTimestamp(dirs.LaunchTimestampPath()); err != nil {
		log.WithError(err).Warn("cannot stamp launch timestamp")
	}

	watcher, err := config.NewWatcher(dirs.ConfigPath())
	if err != nil {
		log.WithError(err).Error("cannot load configuration")
		os.Exit(1)
	}
	defer watcher.Close()

	var cfgPtr atomic.Pointer[config.Config]
	initial := watcher.Current()
	cfgPtr.Store(&initial)
	watcher.OnChange(func(c config.Config) {
		cfgPtr.Store(&c)
		log.Info("configuration reloaded")
	})

	store, err := frecency.Open(dirs.FrecencyPath())
	if err != nil {
		log.WithError(err).Error("cannot open frecency store")
		os.Exit(1)
	}

	pluginDirs := initial.PluginDirs
	if len(pluginDirs) == 0 {
		pluginDirs = []string{
			dirs.ConfigDir + "/plugins",
			"/usr/share/hamr/plugins",
		}
	}
	registry := plugin.NewRegistry(pluginDirs, *testMode, *debug)
	registry.DiscoverAll()

	dirWatcher, err := plugin.NewDirWatcher(registry, func(added, removed, modified []string) {
		log.WithField("added", len(added)).WithField("removed", len(removed)).
			WithField("modified", len(modified)).Info("plugin set changed")
	})
	if err != nil {
		log.WithError(err).Warn("cannot watch plugin directories; hot-reload of plugins disabled")
	} else {
		defer dirWatcher.Close()
	}

	eng := engine.New(registry, store, &cfgPtr)
	seedIndex(eng, registry)

	socketPath := initial.SocketPath
	if *socketOverride != "" {
		socketPath = *socketOverride
	}
	if socketPath == "" {
		socketPath = dirs.CacheDir + "/hamr.sock"
	}

	server := rpc.New(socketPath, eng, registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")
		server.Shutdown()
		registry.Stop()
		store.SaveBestEffort()
	}()

	log.WithField("socket", socketPath).Info("hamrd listening")
	if err := server.Serve(); err != nil {
		log.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

// seedIndex populates the engine's index from each discovered plugin's
// static manifest seed list, a synchronous bootstrap distinct from the
// periodic/triggered reindex requests handled later.
func seedIndex(eng *engine.Engine, registry *plugin.Registry) {
	for _, p := range registry.List() {
		if len(p.Manifest.StaticIndex) == 0 {
			continue
		}
		for _, raw := range p.Manifest.StaticIndex {
			eng.Index().Put(plugin.IndexedItemFromWire(p.ID, raw))
		}
	}
}

func stampLaunchTimestamp(path string) error {
	now := fmt.Sprintf("%d", util.NowMillis())
	return os.WriteFile(path, []byte(now), 0o644)
}
