// Package platform holds the process-lifetime shell. The window chrome
// lives in a separate frontend, so the resident core only needs a blocking
// run loop and a way to open the launcher URL.
package platform

import (
	"os/exec"
	"runtime"
)

type AppConfig struct {
	ServerURL string
	OnQuit    func()
}

type App interface {
	Run() error
	OpenBrowser(url string) error
	Stop()
}

type app struct {
	config AppConfig
	done   chan struct{}
}

func NewApp(cfg AppConfig) App {
	return &app{
		config: cfg,
		done:   make(chan struct{}),
	}
}

// Run blocks until Stop is called.
func (a *app) Run() error {
	<-a.done
	return nil
}

func (a *app) OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

func (a *app) Stop() {
	select {
	case a.done <- struct{}{}:
	default:
	}
	if a.config.OnQuit != nil {
		a.config.OnQuit()
	}
}
