package pathutil

// NormalizeSeparators rewrites backslashes to forward slashes in place and
// returns p.
func NormalizeSeparators(p []byte) []byte {
	for i, c := range p {
		if c == '\\' {
			p[i] = '/'
		}
	}
	return p
}

// Rooted writes a rooted copy of p into dst[:0] and returns it. A path not
// beginning with a slash gains one, which also covers drive letters:
// "C:/x" becomes "/C:/x". Trailing slashes are dropped, except for the root
// itself.
func Rooted(dst, p []byte) []byte {
	dst = dst[:0]
	if len(p) == 0 || p[0] != '/' {
		dst = append(dst, '/')
	}
	dst = append(dst, p...)
	for len(dst) > 1 && dst[len(dst)-1] == '/' {
		dst = dst[:len(dst)-1]
	}
	return dst
}

// Ancestors calls fn for each ancestor folder of a rooted path, shortest
// first: "/", "/a", "/a/b" for "/a/b/file". When selfIsFolder is set the
// path itself is included, so directory entries contribute to their own
// rollup. Empty segments from doubled separators produce no ancestor.
func Ancestors(p []byte, selfIsFolder bool, fn func(folder []byte)) {
	if len(p) == 0 || p[0] != '/' {
		return
	}
	fn(p[:1])
	for i := 1; i < len(p); i++ {
		if p[i] == '/' && p[i-1] != '/' {
			fn(p[:i])
		}
	}
	if selfIsFolder && len(p) > 1 {
		fn(p)
	}
}
