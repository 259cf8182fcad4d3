package vfs

import "path"

// NormalizePath converts a path into its canonical stored form: absolute,
// '/'-separated, cleaned of '.' and duplicate separators, no trailing slash.
// Two differently-spelled but equivalent paths normalize to the same string,
// so equality, cache keys and store keys all agree.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

// isUnder reports whether a normalized path lives under a normalized prefix.
func isUnder(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if p == prefix {
		return true
	}
	return len(p) > len(prefix) && p[:len(prefix)] == prefix && p[len(prefix)] == '/'
}
