package agg

import (
	"sort"
	"unicode/utf8"
)

// userCache memoizes uid-to-name lookups for the single-threaded reducer
// and records every uid that failed to resolve.
type userCache struct {
	names   map[uint64]string
	unknown map[uint64]struct{}
}

func newUserCache() *userCache {
	return &userCache{
		names:   make(map[uint64]string, 64),
		unknown: make(map[uint64]struct{}),
	}
}

// name resolves uid to an owner name. Unresolvable uids, and names that are
// not valid UTF-8, collapse to UnknownOwner and join the unknown set.
func (c *userCache) name(uid uint64) string {
	if n, ok := c.names[uid]; ok {
		return n
	}
	n, ok := lookupOwner(uid)
	if !ok || !utf8.ValidString(n) {
		n = UnknownOwner
		c.unknown[uid] = struct{}{}
	}
	c.names[uid] = n
	return n
}

func (c *userCache) unknownUIDs() []uint64 {
	uids := make([]uint64, 0, len(c.unknown))
	for uid := range c.unknown {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids
}
