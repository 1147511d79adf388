package autostart

import "text/template"

const launchdLabel = "com.mirrorsync.daemon"

var launchdPlist = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>` + launchdLabel + `</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.ExecPath}}</string>
		<string>watch</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<dict>
		<key>SuccessfulExit</key>
		<false/>
	</dict>
</dict>
</plist>
`))

// DarwinAutoStarter manages a launchd user agent.
type DarwinAutoStarter struct {
	dir string
	run runner
}

func (d *DarwinAutoStarter) unit() unitFile {
	return unitFile{dir: d.dir, name: launchdLabel + ".plist", tmpl: launchdPlist}
}

func (d *DarwinAutoStarter) Install(execPath string) error {
	path, err := d.unit().write(execPath)
	if err != nil {
		return err
	}

	return runAll(d.run, [][]string{
		{"launchctl", "load", "-w", path},
	})
}

func (d *DarwinAutoStarter) Uninstall() error {
	if path, err := d.unit().path(); err == nil {
		_, _ = d.run("launchctl", "unload", "-w", path)
	}

	return d.unit().remove()
}

func (d *DarwinAutoStarter) IsInstalled() (bool, error) {
	return d.unit().exists()
}
