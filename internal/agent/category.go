package agent

import "strings"

// Draft categories
const (
	CategoryNegotiation = "negotiation"
	CategoryAcceptance  = "acceptance"
	CategoryRejection   = "rejection"
	CategoryResponse    = "response"
)

// Categorize guesses the kind of reply from its text
func Categorize(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "negotiat"):
		return CategoryNegotiation
	case strings.Contains(lower, "accept"):
		return CategoryAcceptance
	case strings.Contains(lower, "decline"):
		return CategoryRejection
	default:
		return CategoryResponse
	}
}
