package daemon

import (
	"fmt"
	"log"
	"os/exec"
	"time"

	"github.com/loft-chat/loft/internal/browser"
	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/desktop"
	"github.com/loft-chat/loft/internal/service"
)

// Lifecycle runs the browser process loop: spawn, wait, and on exit
// without a quit request park in hide-to-tray until the next show.
type Lifecycle struct {
	info  browser.Info
	def   *service.Definition
	state *State

	// OnHideToTray fires when the browser exits without a quit request,
	// before the loop parks. Used for the one-time tray hint.
	OnHideToTray func()
}

// NewLifecycle creates the lifecycle manager.
func NewLifecycle(info browser.Info, def *service.Definition, state *State) *Lifecycle {
	return &Lifecycle{info: info, def: def, state: state}
}

// Run blocks until quit is requested. While the browser runs, show and
// hide travel through the agents; the loop only matters when the
// process itself is gone.
func (l *Lifecycle) Run() error {
	waitForShow := false

	for {
		if waitForShow {
			log.Printf("[daemon] browser hidden to tray, waiting for show")
			sig := l.state.ShowSignal()
			<-sig
			if l.state.QuitRequested() {
				return nil
			}
			waitForShow = false
		}

		cmd, pipes, err := l.spawn()
		if err != nil {
			return err
		}
		l.state.SetBrowserPID(cmd.Process.Pid)
		l.state.SetVisible(true)
		log.Printf("[daemon] browser launched (pid %d)", cmd.Process.Pid)

		started := time.Now()
		err = cmd.Wait()
		pipes.Writer.Close()
		pipes.Reader.Close()
		l.state.SetBrowserPID(0)
		l.state.SetVisible(false)

		if l.state.QuitRequested() {
			log.Printf("[daemon] quit requested, shutting down")
			return nil
		}
		if err != nil {
			log.Printf("[daemon] browser exited with error after %.1fs: %v",
				time.Since(started).Seconds(), err)
		} else {
			log.Printf("[daemon] browser exited after %.1fs, hiding to tray",
				time.Since(started).Seconds())
		}
		if l.OnHideToTray != nil {
			l.OnHideToTray()
		}
		waitForShow = true
	}
}

func (l *Lifecycle) spawn() (cmd *exec.Cmd, pipes *browser.Pipes, err error) {
	profile, err := config.ProfileDir(l.def.Name)
	if err != nil {
		return nil, nil, err
	}
	if err := config.EnsureDir(profile); err != nil {
		return nil, nil, fmt.Errorf("failed to create profile dir: %w", err)
	}
	extension, err := browser.ExtensionDir()
	if err != nil {
		return nil, nil, err
	}

	c := browser.Command(l.info, browser.Args(l.def, profile))
	pipes, err = browser.AttachCDP(c)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to spawn browser: %w", err)
	}
	browser.CloseChildEnds(c)

	go func() {
		if err := pipes.LoadExtension(extension); err != nil {
			log.Printf("[daemon] extension load failed: %v", err)
		} else {
			log.Printf("[daemon] agent extension loaded")
		}
	}()

	// Chrome rewrites its app-mode .desktop file with NoDisplay and no
	// Exec on every launch, which breaks notification activation and
	// alt-tab identity. Overwrite it now and again after Chrome has
	// had a chance to clobber it.
	l.fixDesktopFile()
	go func() {
		time.Sleep(5 * time.Second)
		l.fixDesktopFile()
	}()

	return c, pipes, nil
}

func (l *Lifecycle) fixDesktopFile() {
	if err := desktop.WriteChromeDesktopFile(l.def); err != nil {
		log.Printf("[daemon] failed to fix chrome desktop file: %v", err)
	}
}
