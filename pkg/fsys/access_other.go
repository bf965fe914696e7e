//go:build !unix

package fsys

import "os"

// writable approximates access(2) with the permission bits where the kernel check isn't available.
func writable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o200 != 0
}
