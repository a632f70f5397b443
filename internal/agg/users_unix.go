//go:build unix

package agg

import (
	"os/user"
	"strconv"
)

// lookupOwner asks the system user database for the name behind uid.
func lookupOwner(uid uint64) (string, bool) {
	u, err := user.LookupId(strconv.FormatUint(uid, 10))
	if err != nil {
		return "", false
	}
	return u.Username, true
}
