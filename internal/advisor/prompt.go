package advisor

import (
	"fmt"
	"strings"

	"github.com/voyantlabs/voyant/api/schemas"
)

// Prompt bounds keep token usage predictable regardless of page size.
const (
	maxPromptButtons = 15
	maxPromptLinks   = 10
)

const scrollPrompt = `You are looking at a screenshot of a web page.
Decide whether scrolling down would reveal meaningful content (articles,
media, listings) that is not visible yet, and how deep to go.
Respond with JSON: {"should_scroll": bool, "depth": "shallow"|"medium"|"deep"}.`

const contentPrompt = `You are looking at a screenshot of a web page.
Does it show the site's actual content payload (a video player, a live
session, an interactive experience, or substantial media), rather than a
landing page, menu, or gate? Answer with a single word: yes or no.`

// buildDecisionPrompt summarizes the page state alongside the screenshot.
// Button and link lists are truncated so the prompt stays bounded.
func buildDecisionPrompt(state schemas.PageState) string {
	var b strings.Builder

	b.WriteString("You are an autonomous web crawler looking for a site's main content ")
	b.WriteString("(video, live session, or interactive experience). The screenshot shows ")
	b.WriteString("the current page. Choose the single best element to click next, or ")
	b.WriteString("answer with a null target if the page already shows the content.\n\n")

	fmt.Fprintf(&b, "URL: %s\nTitle: %s\n\nButtons:\n", state.URL, state.Title)
	for i, btn := range state.Buttons {
		if i >= maxPromptButtons {
			break
		}
		fmt.Fprintf(&b, "- %q (prominent: %v)\n", btn.Text, btn.Prominent)
	}

	b.WriteString("\nLinks:\n")
	count := 0
	for _, link := range state.Links {
		if count >= maxPromptLinks {
			break
		}
		if link.Text == "" {
			continue
		}
		fmt.Fprintf(&b, "- %q -> %s\n", link.Text, link.Href)
		count++
	}

	b.WriteString("\nRespond with JSON: {\"target\": string|null, \"reason\": string, ")
	b.WriteString("\"confidence\": \"high\"|\"medium\"|\"low\"}. The target must be the ")
	b.WriteString("visible text of one of the listed elements.")
	return b.String()
}
