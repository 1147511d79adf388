//go:build !windows

package validate

import "golang.org/x/sys/unix"

func readable(path string) bool {
	return unix.Access(path, unix.R_OK|unix.X_OK) == nil
}

func writable(path string) bool {
	return unix.Access(path, unix.W_OK|unix.X_OK) == nil
}
