package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// KeywordPlaceholder marks where user keywords go inside a style prompt
	KeywordPlaceholder = "{prompt}"

	// NegativeDelimiter separates the positive and negative sections of the model output
	NegativeDelimiter = "---NEGATIVE---"

	MinNegativeWords = 5
	MaxNegativeWords = 20
)

var varRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template is a prompt template with {{variable}} placeholders
type Template struct {
	Name        string
	Content     string
	Description string
}

// Render replaces known variables; unknown placeholders are left as-is.
func (t *Template) Render(vars map[string]string) string {
	return varRegex.ReplaceAllStringFunc(t.Content, func(match string) string {
		name := varRegex.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

var instructionTemplate = &Template{
	Name:        "sd_prompt",
	Description: "Asks the model for a positive and negative Stable Diffusion prompt",
	Content: `
Create a highly detailed, creative, and artistic stable diffusion prompt based on the following keywords: "{{keywords}}".
Use this base prompt as the foundation and keep its style elements: "{{positive_base}}".
The prompt should be structured to include a main subject, a descriptive background, a specific art style, lighting conditions, and a mood or atmosphere.
Make sure to use rich, descriptive adjectives and verbs.
{{negative_instruction}}

Example structure:
"A [main subject] in a [descriptive background], [specific art style], [lighting], [mood], cinematic, highly detailed, 4k, digital art."

Return only the generated positive prompt and negative prompt, separated by the string "` + NegativeDelimiter + `".
`,
}

// Bases holds the user keywords after a style has been merged in
type Bases struct {
	Positive string
	Negative string
}

// MergeStyle combines a style preset with user keywords. A nil style
// returns the keywords unchanged.
func MergeStyle(style *StylePreset, keywords, negativeKeywords string) Bases {
	if style == nil {
		return Bases{Positive: keywords, Negative: negativeKeywords}
	}

	var positive string
	if strings.Contains(style.Prompt, KeywordPlaceholder) {
		positive = strings.ReplaceAll(style.Prompt, KeywordPlaceholder, keywords)
	} else {
		positive = joinNonEmpty(style.Prompt, keywords)
	}

	return Bases{
		Positive: positive,
		Negative: joinNonEmpty(style.NegativePrompt, negativeKeywords),
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// BuildInstruction renders the text sent to the remote model.
func BuildInstruction(keywords string, bases Bases) string {
	var negative string
	if strings.TrimSpace(bases.Negative) == "" {
		negative = fmt.Sprintf("After the main prompt, also write a negative prompt of between %d and %d words listing common things to avoid in generated images, such as blurriness, artifacts, or bad anatomy.",
			MinNegativeWords, MaxNegativeWords)
	} else {
		negative = fmt.Sprintf(`After the main prompt, also generate a list of negative prompt keywords based on the following negative keywords: "%s". These should be common things to avoid in generated images, such as blurriness, artifacts, or bad anatomy.`,
			bases.Negative)
	}

	return instructionTemplate.Render(map[string]string{
		"keywords":             keywords,
		"positive_base":        bases.Positive,
		"negative_instruction": negative,
	})
}

// SplitResponse splits model output on the first NegativeDelimiter.
// Without a delimiter the negative part is empty; text after a second
// delimiter is dropped.
func SplitResponse(text string) (positive, negative string) {
	before, after, found := strings.Cut(text, NegativeDelimiter)
	if !found {
		return strings.TrimSpace(text), ""
	}
	after, _, _ = strings.Cut(after, NegativeDelimiter)
	return strings.TrimSpace(before), strings.TrimSpace(after)
}
