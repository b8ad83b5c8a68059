package resolver

// fileIdentity is a filesystem-level identity for a resolved module file,
// used to tell whether two different import paths (e.g. reached through a
// symlink, or through both the stdlib root and a relative path) name the
// same underlying file. This prevents the "currently loading" cycle
// detector from being fooled by path aliasing, and is esbuild's own
// motivation for the platform-specific mod-key probe in internal/fs
// (modkey_unix.go / modkey_other.go) — there it detects file changes for
// the incremental cache; here it detects identity for cycle detection,
// which is the concern this spec actually assigns the resolver (§4.1).
type fileIdentity struct {
	device uint64
	inode  uint64
	valid  bool
}
