package classifier

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/groupguard/modbot/internal/model"
)

// ErrUnparsable marks a completion whose verdict could not be extracted or
// validated. It is a semantic failure: never retried, and distinct from
// transport errors.
var ErrUnparsable = eris.New("classifier: unparsable verdict")

type rawVerdict struct {
	IsSpam     *bool    `json:"is_spam"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
}

// ParseVerdict extracts the JSON verdict from a raw completion. Models
// occasionally wrap the object in code fences or prose, so the parser
// locates the outermost object before decoding. The signed score is derived
// from the verdict: +confidence for spam, -confidence for legitimate.
func ParseVerdict(raw string) (model.Verdict, error) {
	obj := extractJSONObject(raw)
	if obj == "" {
		return model.Verdict{}, eris.Wrap(ErrUnparsable, "no JSON object in completion")
	}

	var rv rawVerdict
	if err := json.Unmarshal([]byte(obj), &rv); err != nil {
		return model.Verdict{}, eris.Wrap(ErrUnparsable, err.Error())
	}
	if rv.IsSpam == nil {
		return model.Verdict{}, eris.Wrap(ErrUnparsable, "missing is_spam")
	}
	if rv.Confidence == nil {
		return model.Verdict{}, eris.Wrap(ErrUnparsable, "missing confidence")
	}
	conf := *rv.Confidence
	if math.IsNaN(conf) || conf < 0 || conf > 100 {
		return model.Verdict{}, eris.Wrap(ErrUnparsable, "confidence out of range")
	}

	c := int(math.Round(conf))
	score := c
	if !*rv.IsSpam {
		score = -c
	}
	return model.Verdict{
		Score:      score,
		Confidence: c,
		Rationale:  strings.TrimSpace(rv.Reason),
	}, nil
}

// extractJSONObject returns the first balanced top-level {...} in s, or ""
// when none exists. Brace counting ignores braces inside JSON strings.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
