package config

// EventsConfig controls the lifecycle event stream. Events go to Redis streams
// over the same Redis connection the credential store uses.
type EventsConfig struct {
	Enabled bool
}
