package privesc

import (
	"strings"

	"github.com/MKlolbullen/bhtriage/internal/model"
)

// deprecatedOSKeywords are matched as substrings of the lower-cased
// operatingsystem property.
var deprecatedOSKeywords = []string{
	"windows xp",
	"windows vista",
	"windows 7",
	"windows 8",
	"windows 8.1",
	"windows embedded standard",
	"windows embedded 8",
	"windows embedded 8.1",
	"windows server 2003",
	"windows server 2008",
	"windows server® 2008",
	"windows server 2012",
	"windows server 2012 r2",
}

// IsPrivileged is true when admincount is the boolean true.
func IsPrivileged(e *model.Entity) bool {
	return e.Properties.AdminCount.IsTrue()
}

func IsKerberoastable(e *model.Entity) bool {
	return e.Properties.HasSPN.IsTrue()
}

// IsASREPRoastable is true for accounts trusted to authenticate that have no
// userpassword attribute set.
func IsASREPRoastable(e *model.Entity) bool {
	if !e.Properties.TrustedToAuth.IsTrue() {
		return false
	}
	pw, ok := e.Properties.UserPassword.Get()
	return !ok || pw == ""
}

// IsDisabled is true when enabled is present but falsy, null included. A
// missing flag counts as enabled.
func IsDisabled(e *model.Entity) bool {
	enabled, ok := e.Properties.Enabled.Get()
	return ok && !enabled
}

func HasNonExpiringPassword(e *model.Entity) bool {
	return e.Properties.PwdNeverExpires.IsTrue()
}

func IsObsoleteOS(e *model.Entity) bool {
	osName, ok := e.Properties.OperatingSystem.Get()
	if !ok || osName == "" {
		return false
	}
	lower := strings.ToLower(osName)
	for _, kw := range deprecatedOSKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classify evaluates every predicate once per entity, in index order.
func Classify(ix *model.Index) model.Classification {
	var c model.Classification
	for _, e := range ix.Entities() {
		privileged := IsPrivileged(e)
		if privileged {
			c.Privileged = append(c.Privileged, e)
		}
		if IsKerberoastable(e) {
			c.Kerberoastable = append(c.Kerberoastable, e)
		}
		if IsASREPRoastable(e) {
			c.ASREPRoastable = append(c.ASREPRoastable, e)
		}
		if privileged && IsDisabled(e) {
			c.DisabledPrivileged = append(c.DisabledPrivileged, e)
		}
		if HasNonExpiringPassword(e) {
			c.PwdNeverExpires = append(c.PwdNeverExpires, e)
		}
		if IsObsoleteOS(e) {
			c.ObsoleteOS = append(c.ObsoleteOS, e)
		}
	}
	return c
}
