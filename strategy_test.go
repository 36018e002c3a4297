package uploader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perimeter-studio/uploader/uptypes"
)

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name      string
		size      int64
		threshold int64
		want      uptypes.Strategy
	}{
		{
			name:      "zero-byte file relays",
			size:      0,
			threshold: DefaultRelayThreshold,
			want:      uptypes.StrategyRelay,
		},
		{
			name:      "small file relays",
			size:      10 * 1024,
			threshold: DefaultRelayThreshold,
			want:      uptypes.StrategyRelay,
		},
		{
			name:      "one byte below threshold relays",
			size:      DefaultRelayThreshold - 1,
			threshold: DefaultRelayThreshold,
			want:      uptypes.StrategyRelay,
		},
		{
			name:      "exactly at threshold relays",
			size:      DefaultRelayThreshold,
			threshold: DefaultRelayThreshold,
			want:      uptypes.StrategyRelay,
		},
		{
			name:      "one byte above threshold goes direct",
			size:      DefaultRelayThreshold + 1,
			threshold: DefaultRelayThreshold,
			want:      uptypes.StrategyDirect,
		},
		{
			name:      "large file goes direct",
			size:      5 * 1024 * 1024,
			threshold: DefaultRelayThreshold,
			want:      uptypes.StrategyDirect,
		},
		{
			name:      "custom threshold boundary",
			size:      1024,
			threshold: 1024,
			want:      uptypes.StrategyRelay,
		},
		{
			name:      "custom threshold exceeded",
			size:      1025,
			threshold: 1024,
			want:      uptypes.StrategyDirect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectStrategy(tt.size, tt.threshold)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveStrategy(t *testing.T) {
	tests := []struct {
		name     string
		override uptypes.Strategy
		size     int64
		want     uptypes.Strategy
	}{
		{
			name:     "no override uses size selection",
			override: "",
			size:     DefaultRelayThreshold + 1,
			want:     uptypes.StrategyDirect,
		},
		{
			name:     "direct override honored for small file",
			override: uptypes.StrategyDirect,
			size:     1024,
			want:     uptypes.StrategyDirect,
		},
		{
			name:     "relay override honored at threshold",
			override: uptypes.StrategyRelay,
			size:     DefaultRelayThreshold,
			want:     uptypes.StrategyRelay,
		},
		{
			name:     "relay override forced direct above threshold",
			override: uptypes.StrategyRelay,
			size:     DefaultRelayThreshold + 1,
			want:     uptypes.StrategyDirect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveStrategy(tt.override, tt.size, DefaultRelayThreshold)
			assert.Equal(t, tt.want, got)
		})
	}
}
