package autostart

import "text/template"

var systemdUnit = template.Must(template.New("service").Parse(`[Unit]
Description={{.Name}} folder mirroring daemon
After=default.target

[Service]
ExecStart="{{.ExecPath}}" watch
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

// LinuxAutoStarter manages a systemd user service.
type LinuxAutoStarter struct {
	dir string
	run runner
}

func (l *LinuxAutoStarter) unit() unitFile {
	return unitFile{dir: l.dir, name: ServiceName + ".service", tmpl: systemdUnit}
}

func (l *LinuxAutoStarter) Install(execPath string) error {
	if _, err := l.unit().write(execPath); err != nil {
		return err
	}

	return runAll(l.run, [][]string{
		{"systemctl", "--user", "daemon-reload"},
		{"systemctl", "--user", "enable", ServiceName + ".service"},
		{"systemctl", "--user", "start", ServiceName + ".service"},
	})
}

func (l *LinuxAutoStarter) Uninstall() error {
	for _, args := range [][]string{
		{"systemctl", "--user", "stop", ServiceName + ".service"},
		{"systemctl", "--user", "disable", ServiceName + ".service"},
	} {
		_, _ = l.run(args[0], args[1:]...)
	}

	if err := l.unit().remove(); err != nil {
		return err
	}

	_, _ = l.run("systemctl", "--user", "daemon-reload")
	return nil
}

func (l *LinuxAutoStarter) IsInstalled() (bool, error) {
	return l.unit().exists()
}
