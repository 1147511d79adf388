//go:build windows

package validate

import "os"

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// writable creates and removes a probe file in path.
func writable(path string) bool {
	f, err := os.CreateTemp(path, ".mirrorsync-writetest-*.tmp")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
