//go:build darwin || freebsd || linux

package resolver

import "golang.org/x/sys/unix"

func identifyFile(path string) fileIdentity {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return fileIdentity{}
	}
	return fileIdentity{device: uint64(stat.Dev), inode: uint64(stat.Ino), valid: true}
}
