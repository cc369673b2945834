// Package prompt assembles classification requests: the system prompt with
// guidance and few-shot examples, and the per-message user prompt built
// from collected context signals.
package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/groupguard/modbot/internal/collect"
	"github.com/groupguard/modbot/internal/model"
)

// Request is one assembled scoring request.
type Request struct {
	System string
	User   string
}

// Section headers, fixed so live requests and few-shot examples stay
// structurally comparable.
const (
	headerLinkedChannel = "LINKED CHANNEL INFO"
	headerStories       = "USER STORIES CONTENT"
	headerAccountAge    = "ACCOUNT AGE INFO"
	headerReply         = "REPLY CONTEXT"
)

// Per-signal phrases for EMPTY results. Distinct wording per signal keeps
// the scorer calibrated on what exactly was checked.
var emptyPhrases = map[string]string{
	headerLinkedChannel: "no channel linked",
	headerStories:       "no stories posted",
	headerAccountAge:    "no photo on the account",
	headerReply:         "[checked, none found]",
}

// FormatRequest renders the user prompt: the fenced message first, then
// profile fields, then each context section in fixed order.
func FormatRequest(text, name, bio string, signals map[string]model.ContextResult) string {
	var b strings.Builder

	b.WriteString("MESSAGE TO CLASSIFY (Analyze this content):\n")
	fmt.Fprintf(&b, ">>> BEGIN MESSAGE\n%s\n<<< END MESSAGE\n\n", norm.NFC.String(text))

	if name != "" {
		fmt.Fprintf(&b, "USER NAME:\n%s\n\n", name)
	}
	if bio != "" {
		fmt.Fprintf(&b, "USER BIO:\n%s\n\n", bio)
	}

	writeSection(&b, headerLinkedChannel, signals[collect.SignalLinkedChannel])
	writeSection(&b, headerStories, signals[collect.SignalStories])
	writeSection(&b, headerAccountAge, signals[collect.SignalAccountAge])
	writeReplySection(&b, signals[collect.SignalReply])

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, header string, res model.ContextResult) {
	switch res.Status {
	case model.StatusSkipped, "":
		// Prerequisite missing, omit the section entirely.
	case model.StatusEmpty:
		fmt.Fprintf(b, "%s:\n%s\n\n", header, emptyPhrases[header])
	case model.StatusFailed:
		fmt.Fprintf(b, "%s:\ncould not be checked\n\n", header)
	case model.StatusFound:
		fmt.Fprintf(b, "%s:\n%s\n\n", header, res.Content)
	}
}

// writeReplySection fences the replied-to text so the scorer does not
// classify it in place of the message.
func writeReplySection(b *strings.Builder, res model.ContextResult) {
	switch res.Status {
	case model.StatusSkipped, "":
	case model.StatusEmpty:
		fmt.Fprintf(b, "%s (Original post being replied to):\n%s\n\n", headerReply, emptyPhrases[headerReply])
	case model.StatusFailed:
		fmt.Fprintf(b, "%s (Original post being replied to):\ncould not be checked\n\n", headerReply)
	case model.StatusFound:
		fmt.Fprintf(b, "%s (The post the user is replying to - DO NOT CLASSIFY THIS):\n>>> BEGIN CONTEXT\n%s\n<<< END CONTEXT\n\n", headerReply, res.Content)
	}
}
