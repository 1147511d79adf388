package autostart

import "fmt"

const taskName = "MirrorsyncDaemon"

// WindowsAutoStarter manages a scheduled task that runs at logon.
type WindowsAutoStarter struct {
	run runner
}

func (w *WindowsAutoStarter) Install(execPath string) error {
	return runAll(w.run, [][]string{{
		"schtasks", "/Create",
		"/TN", taskName,
		"/TR", fmt.Sprintf(`"%s" watch`, execPath),
		"/SC", "ONLOGON",
		"/RL", "LIMITED",
		"/F",
	}})
}

func (w *WindowsAutoStarter) Uninstall() error {
	return runAll(w.run, [][]string{
		{"schtasks", "/Delete", "/TN", taskName, "/F"},
	})
}

func (w *WindowsAutoStarter) IsInstalled() (bool, error) {
	if _, err := w.run("schtasks", "/Query", "/TN", taskName); err != nil {
		return false, nil
	}
	return true, nil
}
