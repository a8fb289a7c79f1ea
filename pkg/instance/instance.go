package instance

import "github.com/angelmondragon/artx-bot/pkg/env"

// hostKeys are checked in order; the first non-empty value names this process.
var hostKeys = []string{"RENDER_INSTANCE_ID", "DYNO", "HOSTNAME"}

// GetID returns the hosting platform's instance identifier or "local".
func GetID() string {
	for _, key := range hostKeys {
		if id := env.Get(key, ""); id != "" {
			return id
		}
	}
	return "local"
}
