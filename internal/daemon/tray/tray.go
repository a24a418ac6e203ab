package tray

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/getlantern/systray"
)

// syncInterval is how often the menu is refreshed from daemon state;
// agent reports land in State asynchronously and the tray follows.
const syncInterval = 500 * time.Millisecond

var (
	state DaemonState
	cfg   Config

	onStart func()
	onExit  func()

	toggleItem *systray.MenuItem
	dndItem    *systray.MenuItem
	quitItem   *systray.MenuItem

	done chan struct{}
)

// Run starts the system tray. This blocks the calling goroutine (must
// be main). onStartFn is called when the tray is ready (launch the
// daemon services here). onExitFn is called when the tray exits.
func Run(c Config, s DaemonState, onStartFn, onExitFn func()) {
	cfg = c
	state = s
	onStart = onStartFn
	onExit = onExitFn
	done = make(chan struct{})
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	if data, err := os.ReadFile(cfg.IconPath); err == nil {
		systray.SetTemplateIcon(data, data)
	} else {
		log.Printf("[tray] icon %s unavailable: %v", cfg.IconPath, err)
	}
	systray.SetTitle(cfg.DisplayName)
	systray.SetTooltip(cfg.DisplayName)

	// Header
	header := systray.AddMenuItem(cfg.DisplayName, "")
	header.Disable()
	systray.AddSeparator()

	toggleItem = systray.AddMenuItem("Show", "Show or hide the window")
	systray.AddSeparator()
	dndItem = systray.AddMenuItemCheckbox("Do Not Disturb", "Suppress notifications", state.DND())
	systray.AddSeparator()
	quitItem = systray.AddMenuItem("Quit", "Shut down "+cfg.DisplayName)

	if onStart != nil {
		onStart()
	}

	sync()
	go handleClicks()
	go syncLoop()
}

func onQuit() {
	close(done)
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-done:
			return
		case <-toggleItem.ClickedCh:
			if state.Visible() {
				state.RequestHide()
			} else {
				state.RequestShow()
			}
		case <-dndItem.ClickedCh:
			state.SetDND(!state.DND())
		case <-quitItem.ClickedCh:
			state.RequestQuit()
			systray.Quit()
		}
	}
}

// syncLoop refreshes the menu from daemon state every 500ms.
func syncLoop() {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			sync()
		}
	}
}

func sync() {
	if state.Visible() {
		toggleItem.SetTitle("Hide")
	} else {
		toggleItem.SetTitle("Show")
	}

	if state.DND() {
		dndItem.Check()
	} else {
		dndItem.Uncheck()
	}

	title := cfg.DisplayName
	if n := state.BadgeCount(); n > 0 {
		title = fmt.Sprintf("%s (%d)", cfg.DisplayName, n)
	}
	systray.SetTitle(title)
	systray.SetTooltip(title)
}
