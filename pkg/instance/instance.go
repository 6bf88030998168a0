package instance

import "github.com/durent/durent-backend/pkg/env"

// GetID returns the dyno or worker identifier for this process.
func GetID() string {
	return env.First("local", "DYNO", "WORKER_ID")
}
