package uploader

import "github.com/perimeter-studio/uploader/uptypes"

const (
	// DefaultRelayThreshold is the size boundary for strategy selection.
	// Files at or below it relay through the backend; larger files go
	// directly to the object store.
	DefaultRelayThreshold = 300 * 1024

	// DefaultProxyCeiling is the largest file the proxied transport will
	// attempt. Larger files skip straight to the raw transport.
	DefaultProxyCeiling = 50 * 1024 * 1024
)

// SelectStrategy decides how a file of the given size is uploaded.
// It is pure and deterministic: sizes strictly above the threshold select
// the direct strategy, everything else relays through the backend. The
// threshold is the exclusive upper bound of the relay range, so a size
// exactly at the threshold still relays.
func SelectStrategy(sizeBytes, thresholdBytes int64) uptypes.Strategy {
	if sizeBytes > thresholdBytes {
		return uptypes.StrategyDirect
	}
	return uptypes.StrategyRelay
}
