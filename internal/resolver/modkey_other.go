//go:build !(darwin || freebsd || linux)

package resolver

// On platforms without a cheap stat-based inode, fall back to treating
// every path as its own identity; this only weakens alias detection, it
// never weakens cycle detection itself (which is keyed by import path,
// see resolver.go).
func identifyFile(path string) fileIdentity {
	return fileIdentity{}
}
