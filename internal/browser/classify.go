package browser

import (
	"strings"

	"github.com/voyantlabs/voyant/api/schemas"
)

// Keyword tables consulted only after the structural overlay gate passes.
// Checked in priority order; the first set with a hit wins.
var (
	ageGateKeywords = []string{
		"18 or older", "over 18", "i am 18", "age verification",
		"adults only", "date of birth", "18+", "of legal age",
	}
	cookieKeywords = []string{
		"cookie", "cookies", "consent", "gdpr", "privacy preferences",
	}
	loginWallKeywords = []string{
		"log in", "login", "sign in", "sign up", "create an account",
		"members only", "subscribe to continue",
	}
)

// ClassifyBlocking maps a structural overlay flag plus the page's visible
// text to a blocking state. Without a structurally blocking overlay the
// answer is always clear, regardless of what the text says: keyword lists
// are only consulted behind the structural gate. That ordering is what keeps
// ordinary pages that mention "cookies" or "18+" in body copy from being
// misclassified.
func ClassifyBlocking(overlayPresent bool, visibleText string) schemas.BlockingState {
	if !overlayPresent {
		return schemas.BlockingClear
	}

	text := strings.ToLower(visibleText)
	if containsAny(text, ageGateKeywords) {
		return schemas.BlockingAgeGate
	}
	if containsAny(text, cookieKeywords) {
		return schemas.BlockingCookieBanner
	}
	if containsAny(text, loginWallKeywords) {
		return schemas.BlockingLoginWall
	}
	return schemas.BlockingClear
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
