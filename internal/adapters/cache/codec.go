package cache

import (
	"encoding/json"
	"fmt"

	"github.com/mikey/outreach-agent/internal/core"
)

func encodeMetrics(m *core.ChannelMetrics) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode metrics: %w", err)
	}
	return string(b), nil
}

func decodeMetrics(raw string) (core.ChannelMetrics, error) {
	var m core.ChannelMetrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return m, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return m, nil
}
