// Package vfs implements the base and overlay filesystems (spec §4.2,
// §4.3, components C3/C4): an immutable base tree built once at world
// construction, plus a per-server additive/tombstone overlay resolved
// against it. Path handling is grounded on sandia-minimega-minimega's
// file.CleanPath / iomeshage path-joining style (join-then-clean against
// a base directory, reject traversal above root) — see DESIGN.md.
package vfs

import "strings"

// NormalizePath joins rel against cwd when rel is not already absolute,
// then collapses "." segments, pops on ".." (a ".." at root is a no-op),
// and collapses repeated "/". No symlinks exist in this filesystem.
func NormalizePath(cwd, rel string) string {
	var parts []string
	if strings.HasPrefix(rel, "/") {
		parts = splitClean(rel)
	} else {
		parts = append(splitClean(cwd), splitClean(rel)...)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func splitClean(p string) []string {
	raw := strings.Split(p, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParentOf returns the normalized parent directory of an already-
// normalized absolute path. The parent of "/" is "/".
func ParentOf(path string) string {
	if path == "/" {
		return "/"
	}
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

// BaseName returns the final path segment of an already-normalized
// absolute path. BaseName("/") is "/".
func BaseName(path string) string {
	if path == "/" {
		return "/"
	}
	idx := strings.LastIndex(path, "/")
	return path[idx+1:]
}
