package agg

import "strconv"

// lookupOwner stringifies the numeric uid: scan records on Windows carry no
// native ownership, so there is nothing to resolve.
func lookupOwner(uid uint64) (string, bool) {
	return strconv.FormatUint(uid, 10), true
}
