package naming

import "strings"

// MaxSamePath returns the longest leading run of path segments shared by
// every path, appended to samePath:
//
//	MaxSamePath([]string{"/a/b/c", "/a/b/d"}, "") == "/a/b"
//
// The reduction stops as soon as any path has no '/' left, so a final
// segment is never treated as shared. The empty segment in front of an
// absolute path is matched like any other but adds nothing to the result.
func MaxSamePath(paths []string, samePath string) string {
	if len(paths) == 0 {
		return samePath
	}
	for _, p := range paths {
		if !strings.Contains(p, "/") {
			return samePath
		}
	}

	first, _, _ := strings.Cut(paths[0], "/")
	rest := make([]string, 0, len(paths))
	for _, p := range paths {
		seg, tail, _ := strings.Cut(p, "/")
		if seg != first {
			return samePath
		}
		rest = append(rest, tail)
	}

	if first != "" {
		samePath += "/" + first
	}
	return MaxSamePath(rest, samePath)
}
