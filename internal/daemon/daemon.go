package daemon

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/loft-chat/loft/internal/browser"
	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/daemon/dbusapi"
	"github.com/loft-chat/loft/internal/daemon/notify"
	"github.com/loft-chat/loft/internal/daemon/tray"
	"github.com/loft-chat/loft/internal/daemon/watcher"
	"github.com/loft-chat/loft/internal/protocol"
	"github.com/loft-chat/loft/internal/service"
	"github.com/loft-chat/loft/internal/shellhelper"
)

// trayRetryDelays spaces tray startup attempts; at login the status
// notifier watcher may not be on the bus yet.
var trayRetryDelays = []time.Duration{0, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

// Run is the loftd entrypoint for one service. It blocks until quit.
func Run(def *service.Definition, minimized bool) error {
	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}
	serviceCfg, err := config.LoadServiceConfig(def.Name)
	if err != nil {
		return err
	}

	// Singleton: a second start means "show the existing window".
	running, err := dbusapi.IsRunning(def)
	if err != nil {
		log.Printf("[daemon] singleton check failed (continuing): %v", err)
	} else if running {
		log.Printf("[daemon] %s already running, sending Show and exiting", def.DisplayName)
		client, err := dbusapi.NewClient(def)
		if err != nil {
			return err
		}
		defer client.Close()
		return client.Show()
	}

	state := NewState(serviceCfg.DoNotDisturb, minimized)

	conn, err := dbusapi.Register(def, state)
	if err != nil {
		return fmt.Errorf("failed to register control service: %w", err)
	}
	defer conn.Close()

	info, err := browser.Detect(globalCfg)
	if err != nil {
		return err
	}
	log.Printf("[daemon] found chrome: %s (%s)", info.Path, info.Method)

	// Runfile for CLI liveness checks.
	if err := config.SaveDaemonInfo(config.NewDaemonInfo(def.Name)); err != nil {
		log.Printf("[daemon] failed to write runfile: %v", err)
	}
	defer func() {
		if err := config.RemoveDaemonInfo(def.Name); err != nil {
			log.Printf("[daemon] failed to remove runfile: %v", err)
		}
	}()

	if err := waitForTrayHost(conn); err != nil {
		return err
	}

	iconsDir, err := config.IconsDir()
	if err != nil {
		return err
	}
	trayCfg := tray.Config{
		ServiceName: def.Name,
		DisplayName: def.DisplayName,
		IconPath:    filepath.Join(iconsDir, def.AppIconFilename),
	}

	var lifecycleErr error
	lifecycleDone := make(chan struct{})

	// The tray owns the main goroutine; everything else starts from
	// its ready callback.
	tray.Run(trayCfg, &persistingState{State: state, service: def.Name}, func() {
		notifier := notify.New(conn, def, state, trayCfg.IconPath)

		relay := NewRelayServer(def.Name, state, notifier)
		if err := relay.Start(); err != nil {
			log.Printf("[daemon] relay server failed: %v", err)
			state.RequestQuit()
			tray.Quit()
			return
		}

		startShellCorrections(state, def)
		startConfigWatcher(state, def.Name)
		startSignalHandler(state)

		lifecycle := NewLifecycle(info, def, state)
		lifecycle.OnHideToTray = func() { showTrayHintOnce(def, notifier) }

		go func() {
			defer close(lifecycleDone)
			defer relay.Stop()
			defer notifier.Close()
			lifecycleErr = lifecycle.Run()
			tray.Quit()
		}()
	}, func() {
		state.RequestQuit()
	})

	<-lifecycleDone
	return lifecycleErr
}

// showTrayHintOnce tells the user, once ever, that closing the window
// keeps the service in the tray.
func showTrayHintOnce(def *service.Definition, notifier *notify.Service) {
	st, err := config.LoadServiceState(def.Name)
	if err != nil || st.HintDismissed {
		return
	}
	notifier.Hint(def.DisplayName+" is still running",
		"The window was closed to the tray. Use the tray icon or `loft show "+def.Name+"` to bring it back.")
	st.HintDismissed = true
	if err := config.SaveServiceState(def.Name, st); err != nil {
		log.Printf("[daemon] failed to persist tray hint flag: %v", err)
	}
}

// persistingState persists DND flips made from the tray before they
// are broadcast, so a fsnotify-triggered reload sees the same value.
type persistingState struct {
	*State
	service string
}

func (p *persistingState) SetDND(enabled bool) {
	cfg, err := config.LoadServiceConfig(p.service)
	if err == nil {
		cfg.DoNotDisturb = enabled
		if err := config.SaveServiceConfig(p.service, cfg); err != nil {
			log.Printf("[daemon] failed to persist dnd: %v", err)
		}
	}
	p.State.SetDND(enabled)
}

// waitForTrayHost waits for a status notifier host on the session bus,
// retrying with 0/2/4/8/16s spacing.
func waitForTrayHost(conn *dbus.Conn) error {
	const watcherName = "org.kde.StatusNotifierWatcher"
	for attempt, delay := range trayRetryDelays {
		if delay > 0 {
			log.Printf("[daemon] tray host unavailable, retrying in %s (attempt %d/%d)",
				delay, attempt+1, len(trayRetryDelays))
			time.Sleep(delay)
		}
		var owned bool
		err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, watcherName).Store(&owned)
		if err == nil && owned {
			return nil
		}
	}
	// Proceed anyway: systray has its own fallback paths and some
	// desktops register the watcher lazily.
	log.Printf("[daemon] no status notifier watcher found, starting tray anyway")
	return nil
}

// startShellCorrections runs the compositor-level correction path:
// every show/hide command is mirrored to the shell helper, which can
// move focus where the in-page agent cannot.
func startShellCorrections(state *State, def *service.Definition) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		log.Printf("[daemon] shell helper unavailable: %v", err)
		return
	}
	ensureShellHelper(conn)
	client := shellhelper.NewClient(conn)
	cmds, _ := state.Subscribe() // daemon-lifetime subscription

	go func() {
		for m := range cmds {
			switch m.Type {
			case protocol.TypeShowWindow:
				if _, err := client.FocusWindow(def.WMClass); err != nil {
					log.Printf("[daemon] shell focus failed: %v", err)
				}
			case protocol.TypeHideWindow:
				if _, err := client.HideWindow(def.WMClass); err != nil {
					log.Printf("[daemon] shell hide failed: %v", err)
				}
			}
		}
	}()
}

// ensureShellHelper launches `loftd --shell-helper` when no helper owns
// its bus name yet, which happens on first run before the autostart
// entry has ever fired. A helper already on the bus is left alone.
func ensureShellHelper(conn *dbus.Conn) {
	var owned bool
	err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, shellhelper.BusName).Store(&owned)
	if err != nil {
		log.Printf("[daemon] bus name check failed: %v", err)
		return
	}
	if owned {
		return
	}

	exe, err := os.Executable()
	if err != nil {
		log.Printf("[daemon] could not determine binary path: %v", err)
		return
	}
	cmd := exec.Command(exe, "--shell-helper")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		log.Printf("[daemon] shell helper launch failed: %v", err)
		return
	}
	log.Printf("[daemon] launched shell helper (pid %d)", cmd.Process.Pid)
	_ = cmd.Process.Release()
}

// startConfigWatcher applies config edits made while the daemon runs;
// DND is the flag that matters, and a change is broadcast to agents.
func startConfigWatcher(state *State, serviceName string) {
	w, err := watcher.New()
	if err != nil {
		log.Printf("[daemon] config watcher unavailable: %v", err)
		return
	}
	if err := w.Start(); err != nil {
		log.Printf("[daemon] config watcher failed to start: %v", err)
		return
	}
	go func() {
		for ev := range w.Events() {
			if ev.Service != serviceName {
				continue
			}
			cfg, err := config.LoadServiceConfig(serviceName)
			if err != nil {
				log.Printf("[daemon] config reload failed: %v", err)
				continue
			}
			if cfg.DoNotDisturb != state.DND() {
				log.Printf("[daemon] dnd changed on disk: %v", cfg.DoNotDisturb)
				state.SetDND(cfg.DoNotDisturb)
			}
		}
	}()
}

func startSignalHandler(state *State) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Printf("[daemon] received %s", s)
		state.RequestQuit()
		tray.Quit()
	}()
}
