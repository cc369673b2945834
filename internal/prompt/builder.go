package prompt

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/groupguard/modbot/internal/collect"
	"github.com/groupguard/modbot/internal/model"
)

const baseInstructions = `You are a spam message classifier for chat groups.

Your task: Analyze user messages and determine if they are spam or legitimate.
The message to classify is enclosed in >>> BEGIN MESSAGE markers.
You will also receive context information (User Bio, Linked Channel, User Stories, Account Age, Reply Context).

IMPORTANT: Do not classify the context information as spam. Only classify the message inside the markers.

## CLASSIFICATION PHILOSOPHY
Spam is not just unsolicited advertising. It is ANY content that does not add unique value to the discussion.
A comment is likely spam if it's generic, purely reactive without insight, or serves only to lure users to a profile.
Real human interaction is characterized by unique perspective, specific references, and genuine engagement.

Return a spam score from -100 to +100, where:
- Positive scores = spam (0 to 100)
- Negative scores = legitimate (-100 to 0)
- Zero = uncertain

Also provide a confidence percentage (0-100) and a brief explanation.`

const userInfoGuidance = `
## USER INFORMATION ANALYSIS
Examine the user's name and bio for professional labels or hidden promotions.

HIGH SPAM INDICATORS:
- NAME: Professional titles ("Psychologist", "Coach", "Investor", "Realtor") or links directly in the user's display name.
- BIO: Links to bots, external sites, or "consultation" offers.
- "GHOST" PROFILES: No bio and no username combined with generic messages.

Spammers often use a "clean" name with a professional bio to build false legitimacy before posting bait comments.`

const linkedChannelGuidance = `
## LINKED CHANNEL ANALYSIS
This section contains information about a channel linked to the user's profile.

Key metrics to evaluate:
- subscribers: Number of channel subscribers
- total_posts: Total posts ever published
- age_delta: Channel age in months (format: "11mo")
- recent posts: Content from recent channel posts (if available)

A "suspicious" annotation means the channel is tiny, near-empty and recently created at once.

CONTENT ANALYSIS: Examine recent posts for spam indicators like advertising,
scams, fraudulent offers or adult content. If recent posts contain suspicious
content this is a STRONG spam indicator, even if the current message appears
innocent. Such channels often use innocent comments to drive traffic to their profiles.`

const storiesGuidance = `
## USER STORIES ANALYSIS
This section contains content from the user's active profile stories.

Spammers frequently use stories to hide promotional content, links, or scam offers
while posting "clean" comments to lure people into viewing their profile.

Flag as HIGH SPAM if stories contain:
- Advertising links or promotions
- Calls to join channels or follow profiles
- Money-making offers, crypto, or investment schemes

This is a strong spam indicator even if the message itself appears legitimate.`

const accountAgeGuidance = `
## ACCOUNT AGE ANALYSIS
This section shows the age of the user's profile photo.

Account age is a powerful spam indicator because spammers create new accounts
and immediately start posting spam.

Risk assessment:
- no photo on the account: HIGH spam risk for new messages
- photo_age=0mo (less than 1 month): HIGH spam risk - likely brand new account
- photo_age=1mo to 3mo: MEDIUM spam risk
- photo_age above 12mo: LOW spam risk - established account`

const replyGuidance = `
## DISCUSSION CONTEXT ANALYSIS
The user message may be a reply to another post. The content of that original post is provided in the "REPLY CONTEXT" section.

CRITICAL INSTRUCTION:
1. The "REPLY CONTEXT" is NOT the message you are classifying.
2. It often contains the spam message that the user is replying to.
3. DO NOT classify the user's message as spam just because the "REPLY CONTEXT" is spam.
4. ONLY use this context to check if the user's reply is RELEVANT to the conversation.

HIGH SPAM INDICATOR: User replies that are completely unrelated to the discussion topic.
This is a common scam tactic: post irrelevant comments to "befriend" users,
then send investment offers via private messages.`

const generatedContentGuidance = `
## GENERATED CONTENT & EMOJI DETECTION
A major spam indicator is machine-generated comments that appear "clean" but add no value.

HIGH SPAM INDICATORS:
1. ROBOTIC TONE: generic rephrasing of the reply context, overly polite hollow
   phrasing, zero unique contribution or personal opinion.
2. UNUSUAL EMOJI USAGE: excessive emojis in a short comment, emojis placed
   between words as visual noise to grab attention.
3. BAIT OFFERS: "I have a free book/course", "write to me and I'll send the link",
   vague help that requires leaving the current discussion.`

const responseFormat = `
## RESPONSE FORMAT
Always respond with valid JSON in this exact format:
{
    "is_spam": true/false,
    "confidence": 0-100,
    "reason": "Brief explanation naming which parts of the input drove the classification."
}

## SPAM CLASSIFICATION EXAMPLES`

// Builder assembles system prompts. Guidance sections are included only
// when the matching signal was actually attempted, keeping the prompt
// small for messages with little context.
type Builder struct {
	maxExamples int
	budgetChars int
}

// NewBuilder creates a builder with the few-shot example ceiling and the
// serialized-size budget for the examples block.
func NewBuilder(maxExamples, budgetChars int) *Builder {
	if maxExamples <= 0 {
		maxExamples = 20
	}
	if budgetChars <= 0 {
		budgetChars = 24000
	}
	return &Builder{maxExamples: maxExamples, budgetChars: budgetChars}
}

// BuildSystem renders the system prompt: instructions, signal-conditional
// guidance, response format, then few-shot examples. examples are expected
// admin-specific first, newest first, as the store returns them; the char
// budget trims from the tail so the least specific, oldest rows go first.
func (b *Builder) BuildSystem(examples []model.LabeledExample, signals map[string]model.ContextResult) string {
	var sb strings.Builder
	sb.WriteString(baseInstructions)
	sb.WriteString("\n")
	sb.WriteString(userInfoGuidance)

	if attempted(signals, collect.SignalLinkedChannel) {
		sb.WriteString("\n")
		sb.WriteString(linkedChannelGuidance)
	}
	if attempted(signals, collect.SignalStories) {
		sb.WriteString("\n")
		sb.WriteString(storiesGuidance)
	}
	if attempted(signals, collect.SignalAccountAge) {
		sb.WriteString("\n")
		sb.WriteString(accountAgeGuidance)
	}
	if attempted(signals, collect.SignalReply) {
		sb.WriteString("\n")
		sb.WriteString(replyGuidance)
	}
	sb.WriteString("\n")
	sb.WriteString(generatedContentGuidance)
	sb.WriteString("\n")
	sb.WriteString(responseFormat)

	used := 0
	included := 0
	for _, ex := range examples {
		if included >= b.maxExamples {
			break
		}
		block := renderExample(ex)
		if used+len(block) > b.budgetChars {
			zap.L().Debug("example budget reached",
				zap.Int("included", included),
				zap.Int("budget_chars", b.budgetChars),
			)
			break
		}
		sb.WriteString(block)
		used += len(block)
		included++
	}

	return sb.String()
}

func attempted(signals map[string]model.ContextResult, name string) bool {
	res, ok := signals[name]
	return ok && res.Status != model.StatusSkipped
}

// renderExample formats one labeled example as a request plus the expected
// answer, mirroring the live request layout.
func renderExample(ex model.LabeledExample) string {
	signals := map[string]model.ContextResult{
		collect.SignalLinkedChannel: model.DecodeContext(ex.LinkedChannelCtx),
		collect.SignalStories:       model.DecodeContext(ex.StoriesCtx),
		collect.SignalAccountAge:    model.DecodeContext(ex.AccountAgeCtx),
		collect.SignalReply:         model.DecodeContext(ex.ReplyCtx),
	}
	req := FormatRequest(ex.Text, ex.Name, ex.Bio, signals)

	isSpam := ex.Score > 0
	confidence := ex.Score
	if confidence < 0 {
		confidence = -confidence
	}

	return fmt.Sprintf("\n\n%s<answer>\n{\n    \"is_spam\": %t,\n    \"confidence\": %d\n}\n</answer>", req, isSpam, confidence)
}
