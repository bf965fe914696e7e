//go:build unix

package fsys

import "golang.org/x/sys/unix"

// writable asks the kernel through access(2), which accounts for the effective uid, ACLs and read-only mounts.
func writable(dir string) bool {
	return unix.Access(dir, unix.W_OK|unix.X_OK) == nil
}
