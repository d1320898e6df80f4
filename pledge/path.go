package pledge

import "strings"

// Canon lexically resolves "." and ".." components and collapses repeated
// slashes without touching the filesystem, mirroring kern_pledge.c's
// canonpath(): a relative input is returned unchanged (the caller is
// expected to have already prefixed a cwd via Resolve), and ".." at the
// root of the path is dropped rather than erroring.
func Canon(path string) string {
	if path == "" || path[0] != '/' {
		return path
	}

	var out []byte
	for i := 0; i < len(path); {
		if path[i] == '/' {
			// collapse "//"
			for i < len(path) && path[i] == '/' {
				i++
			}
			if i >= len(path) {
				break
			}
			out = append(out, '/')

			// "./" component: skip it
			if path[i] == '.' && (i+1 >= len(path) || path[i+1] == '/') {
				i++
				out = out[:len(out)-1]
				continue
			}

			// "../" component: back up to the previous "/"
			if path[i] == '.' && i+1 < len(path) && path[i+1] == '.' &&
				(i+2 >= len(path) || path[i+2] == '/') {
				i += 2
				out = out[:len(out)-1] // drop the '/' just appended
				if len(out) > 0 {
					j := len(out) - 1
					for j > 0 && out[j] != '/' {
						j--
					}
					out = out[:j]
				}
				continue
			}
			continue
		}
		out = append(out, path[i])
		i++
	}

	if len(out) == 0 {
		return "/"
	}
	return string(out)
}

// Resolve canonicalizes path relative to cwd (used when path is relative)
// and, if root (a chroot directory) is non-empty, prefixes it, mirroring
// kern_pledge.c's resolvpath(): lazily fetch cwd only for relative paths,
// canonicalize, then prepend the chroot root if the process has one.
func Resolve(cwd, root, path string) string {
	full := path
	if path == "" || path[0] != '/' {
		full = joinPath(cwd, path)
	}
	canon := Canon(full)
	if root != "" && root != "/" {
		return Canon(root + canon)
	}
	return canon
}

func joinPath(cwd, path string) string {
	if cwd == "" {
		cwd = "/"
	}
	if path == "" {
		return cwd
	}
	if strings.HasSuffix(cwd, "/") {
		return cwd + path
	}
	return cwd + "/" + path
}

// SubstrResult is the three-way outcome of SubstrCmp, matching
// kern_pledge.c's substrcmp() return values exactly (restored per
// SPEC_FULL.md §2 rather than collapsed into two booleans).
type SubstrResult int

const (
	// SubstrNone means neither string is a prefix of the other.
	SubstrNone SubstrResult = iota
	// SubstrFirstIsPrefix means s1 is a prefix of s2 (s1 is an ancestor
	// directory, or exactly equal).
	SubstrFirstIsPrefix
	// SubstrSecondIsPrefix means s2 is a prefix of s1 (s2 is an ancestor
	// directory of s1).
	SubstrSecondIsPrefix
)

// SubstrCmp compares two canonical paths the way kern_pledge.c's
// substrcmp() does: byte-compare up to the shorter length, then classify
// by which string is the prefix of the other.
func SubstrCmp(s1, s2 string) SubstrResult {
	n := len(s1)
	if len(s2) < n {
		n = len(s2)
	}
	if s1[:n] != s2[:n] {
		return SubstrNone
	}
	switch {
	case len(s1) <= len(s2):
		return SubstrFirstIsPrefix
	default:
		return SubstrSecondIsPrefix
	}
}
