package plan

import "strings"

// domainKeywords maps marker substrings (matched against the lowercased
// feature name and description) to a domain tag. Earlier entries win.
var domainKeywords = []struct {
	markers []string
	domain  Domain
}{
	{[]string{"login", "logout", "signup", "sign up", "register", "password", "auth", "session", "permission", "role-based"}, DomainAuth},
	{[]string{"payment", "checkout", "cart", "subscription", "billing", "invoice", "pricing"}, DomainCommerce},
	{[]string{"realtime", "real-time", "websocket", "live update", "presence", "chat"}, DomainRealtime},
	{[]string{"upload", "image", "video", "audio", "file storage", "avatar", "gallery"}, DomainMedia},
	{[]string{"webhook", "third-party", "integration", "import from", "export to", "sync with", "oauth provider"}, DomainIntegration},
	{[]string{"endpoint", "rest", "graphql", "server", "backend", "api"}, DomainAPI},
	{[]string{"database", "crud", "record", "persist", "search", "filter", "sort", "list", "table", "report", "analytics"}, DomainData},
	{[]string{"dashboard", "page", "form", "layout", "theme", "navigation", "modal", "responsive", "dark mode"}, DomainUI},
}

// complexKeywords push a feature to complex regardless of description length.
var complexKeywords = []string{
	"realtime", "real-time", "websocket", "payment", "oauth", "machine learning",
	"recommendation", "notification", "multi-tenant", "offline", "collaborative",
}

// simpleKeywords pull a feature to simple when nothing else disagrees.
var simpleKeywords = []string{
	"static", "display", "view", "show", "label", "footer", "header", "about page",
}

// baseTokens is the estimated generation cost per complexity grade.
var baseTokens = map[Complexity]int{
	ComplexitySimple:   1500,
	ComplexityModerate: 3500,
	ComplexityComplex:  7000,
}

// domainTokenBonus inflates estimates for domains that generate both client
// and server code.
var domainTokenBonus = map[Domain]int{
	DomainAuth:     1500,
	DomainAPI:      1000,
	DomainCommerce: 2000,
	DomainRealtime: 2000,
}

// ClassifyFeature tags a single feature with domain, complexity, and an
// estimated token cost. It never fails; unrecognized features fall back to
// the core domain at moderate complexity.
func ClassifyFeature(f Feature) FeatureClassification {
	text := strings.ToLower(f.Name + " " + f.Description)

	domain := DomainCore
	for _, dk := range domainKeywords {
		if containsAny(text, dk.markers) {
			domain = dk.domain
			break
		}
	}

	complexity := classifyComplexity(text)

	tokens := baseTokens[complexity] + domainTokenBonus[domain]

	return FeatureClassification{
		Feature:         f,
		Domain:          domain,
		Complexity:      complexity,
		EstimatedTokens: tokens,
		SuggestedPhase:  suggestedPhaseName(domain),
	}
}

// Classify tags every feature in the list. Nil-safe.
func Classify(features []Feature) []FeatureClassification {
	out := make([]FeatureClassification, 0, len(features))
	for _, f := range features {
		out = append(out, ClassifyFeature(f))
	}
	return out
}

func classifyComplexity(text string) Complexity {
	if containsAny(text, complexKeywords) {
		return ComplexityComplex
	}
	if containsAny(text, simpleKeywords) && len(text) < 120 {
		return ComplexitySimple
	}
	// Long descriptions imply more moving parts.
	if len(text) > 240 {
		return ComplexityComplex
	}
	if len(text) < 60 {
		return ComplexitySimple
	}
	return ComplexityModerate
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// suggestedPhaseName returns the human-readable phase name a feature of the
// given domain would naturally land in.
func suggestedPhaseName(d Domain) string {
	switch d {
	case DomainAuth:
		return "Authentication & Access"
	case DomainData:
		return "Data & Records"
	case DomainUI:
		return "Interface & Navigation"
	case DomainAPI:
		return "API & Services"
	case DomainRealtime:
		return "Realtime Features"
	case DomainMedia:
		return "Media & Uploads"
	case DomainCommerce:
		return "Commerce & Payments"
	case DomainIntegration:
		return "External Integrations"
	default:
		return "Core Features"
	}
}
