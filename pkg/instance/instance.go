package instance

import "github.com/angelmondragon/tiny-inventory/pkg/env"

// GetID names the running process in logs. INSTANCE_ID wins over the
// platform-provided HOSTNAME.
func GetID() string {
	if id := env.Get("INSTANCE_ID", ""); id != "" {
		return id
	}
	return env.Get("HOSTNAME", "local")
}
