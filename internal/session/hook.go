package session

// ExpiryHook runs when the backend session can no longer be sustained, that is
// when a renewal failed or was suppressed. The coordinator invokes it at most
// once per failed-or-suppressed renewal cycle. Whatever the embedding process
// wants to happen at that point, re-login, alerting, flipping a readiness
// probe, belongs in here and not in the coordinator.
type ExpiryHook func()

// NoopExpiryHook is used when the embedding process has nothing to run on expiry.
func NoopExpiryHook() {}
