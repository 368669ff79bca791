package featureflags

import (
	"os"
	"strings"
)

// Known flags. Anything else resolves to false unless its env var is set.
const (
	// DisableEmail forces the noop mailer even when SendGrid is configured.
	DisableEmail = "disable_email"
	// DisableOccupancyWorker skips the periodic house-status reconciler.
	DisableOccupancyWorker = "disable_occupancy_worker"
)

// Enabled reports whether a flag is switched on via FLAG_<NAME>.
// Accepted truthy values: 1, true, yes, on (case-insensitive).
func Enabled(name string) bool {
	switch strings.ToLower(os.Getenv("FLAG_" + strings.ToUpper(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
