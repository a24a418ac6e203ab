// Package main is the entry point for the loftd daemon. One process
// per service; the same binary also serves as the native messaging
// relay (--relay, spawned by Chrome) and the shell helper
// (--shell-helper).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/loft-chat/loft/internal/config"
	"github.com/loft-chat/loft/internal/daemon"
	"github.com/loft-chat/loft/internal/service"
	"github.com/loft-chat/loft/internal/shellhelper"
)

func main() {
	serviceName := flag.String("service", "", "service to run (whatsapp, messenger)")
	minimized := flag.Bool("minimized", false, "start hidden in the tray")
	relay := flag.Bool("relay", false, "run as native messaging relay (spawned by Chrome)")
	shellHelper := flag.Bool("shell-helper", false, "run the shell window helper")
	flag.Parse()

	if *relay {
		// The relay talks native messaging on stdout; logs must not.
		log.SetOutput(os.Stderr)
		log.SetPrefix("[loftd] ")
		if err := daemon.RunRelay(); err != nil {
			log.Fatalf("relay failed: %v", err)
		}
		return
	}

	log.SetPrefix("[loftd] ")
	log.SetFlags(log.Ldate | log.Ltime)

	if *shellHelper {
		classes := make([]string, 0, len(service.All))
		for _, def := range service.All {
			classes = append(classes, def.WMClass)
		}
		if err := shellhelper.Run(classes); err != nil {
			log.Fatalf("shell helper failed: %v", err)
		}
		return
	}

	if *serviceName == "" {
		fmt.Fprintf(os.Stderr, "usage: %s --service <name> [--minimized]\n",
			filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "available services: %v\n", service.Names())
		os.Exit(2)
	}
	def := service.Lookup(*serviceName)
	if def == nil {
		fmt.Fprintf(os.Stderr, "unknown service %q (available: %v)\n",
			*serviceName, service.Names())
		os.Exit(2)
	}

	setupLogFile(def)

	if err := daemon.Run(def, *minimized); err != nil {
		log.Fatalf("daemon failed: %v", err)
	}
}

// setupLogFile tees daemon logs into the Loft log directory when not
// attached to a terminal, so launcher-started daemons are debuggable.
func setupLogFile(def *service.Definition) {
	logsDir, err := config.LogsDir()
	if err != nil {
		return
	}
	if err := config.EnsureDir(logsDir); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(logsDir, def.Name+".log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	log.SetOutput(f)
}
