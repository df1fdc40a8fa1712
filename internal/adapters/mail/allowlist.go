package mail

import (
	"strings"

	"go.uber.org/zap"
)

// SenderAllowlist lists domains allowed to post into any thread
type SenderAllowlist struct {
	domains []string
	logger  *zap.Logger
}

// NewSenderAllowlist creates a new sender allowlist
func NewSenderAllowlist(domains []string, logger *zap.Logger) *SenderAllowlist {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		if d := strings.ToLower(strings.TrimSpace(domain)); d != "" {
			normalized = append(normalized, d)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized inbound sender allowlist", zap.Strings("domains", normalized))
	}

	return &SenderAllowlist{
		domains: normalized,
		logger:  logger,
	}
}

// Allowed reports whether a sender may reply into the thread. The thread's
// own influencer is always allowed.
func (a *SenderAllowlist) Allowed(from, influencerEmail string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	if from != "" && from == strings.ToLower(strings.TrimSpace(influencerEmail)) {
		return true
	}
	if a == nil || len(a.domains) == 0 {
		return false
	}

	parts := strings.Split(from, "@")
	if len(parts) != 2 {
		return false
	}
	for _, allowed := range a.domains {
		if allowed == parts[1] {
			if a.logger != nil {
				a.logger.Debug("Sender domain is allowlisted",
					zap.String("domain", parts[1]),
					zap.String("email", from))
			}
			return true
		}
	}
	return false
}
