package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikey/outreach-agent/internal/core"
	"github.com/mikey/outreach-agent/internal/utils"
)

// PromptBuilder assembles the system and user turns for a drafting run
type PromptBuilder struct {
	BrandID     string
	MaxBodySize int
	Text        *utils.TextProcessor
}

// System returns the system instruction with the mandatory tool order and output contract
func (b *PromptBuilder) System() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are an expert influencer marketing manager for %s.\n", b.BrandID)
	sb.WriteString("Your goal is to analyze the email thread and draft a professional reply.\n\n")

	sb.WriteString("MANDATORY TOOL CALLS (call these in order):\n")
	sb.WriteString("1. resolve_channel - get the influencer's channel metrics\n")
	fmt.Fprintf(&sb, "2. get_brand_context - get budget and guidelines for %s\n", b.BrandID)
	sb.WriteString("3. quote_price - always calculate the fair CPM-based price before drafting\n")
	sb.WriteString("4. validate_counter - if the influencer proposed a price, validate it\n")
	sb.WriteString("Optional: forecast_roi and assess_authenticity when the decision is close.\n")
	sb.WriteString("Never offer more than the negotiation cap returned by quote_price.\n\n")

	sb.WriteString("OUTPUT FORMAT:\n")
	sb.WriteString("After the tool calls, output ONLY the email, exactly as:\n")
	sb.WriteString("Subject: [subject line]\n\n[email body]\n\n[signature]\n")
	sb.WriteString("No analysis, no commentary, no preamble, no questions to the operator.\n")

	return sb.String()
}

// User returns the user turn embedding the thread, with message bodies truncated
func (b *PromptBuilder) User(thread *core.EmailThread) (string, error) {
	view := *thread
	view.Messages = make([]core.Message, len(thread.Messages))
	for i, m := range thread.Messages {
		if b.Text != nil {
			m.Body = b.Text.ProcessText(m.Body, b.MaxBodySize)
		}
		view.Messages[i] = m
	}

	data, err := json.Marshal(&view)
	if err != nil {
		return "", fmt.Errorf("failed to encode thread %s: %w", thread.ID, err)
	}
	return "Email Context: " + string(data), nil
}
