package autostart

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"
)

// unitFile is a service definition rendered into a per-user directory.
type unitFile struct {
	dir  string
	name string
	tmpl *template.Template
}

func (u unitFile) path() (string, error) {
	if u.dir == "" {
		return "", errors.New("failed to locate home directory")
	}
	return filepath.Join(u.dir, u.name), nil
}

func (u unitFile) write(execPath string) (string, error) {
	path, err := u.path()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := u.tmpl.Execute(&buf, map[string]string{
		"ExecPath": execPath,
		"Name":     ServiceName,
	}); err != nil {
		return "", fmt.Errorf("failed to render service file: %w", err)
	}

	if err := os.MkdirAll(u.dir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write service file: %w", err)
	}

	return path, nil
}

func (u unitFile) remove() error {
	path, err := u.path()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (u unitFile) exists() (bool, error) {
	path, err := u.path()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
