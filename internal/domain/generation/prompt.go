package generation

import "strings"

// basePrompt anchors every generation. Section markers below append the
// per-request steering on top of it.
const basePrompt = `You are a professional commercial food photographer. ` +
	`Transform the provided dish photo into a polished, appetizing commercial ` +
	`photograph ready for marketing use. Keep the actual food faithful to the ` +
	`original: same dish, same ingredients, same portion. Improve lighting, ` +
	`composition, styling, background and overall presentation. The result ` +
	`must look like a real photograph, never an illustration. Do not add text, ` +
	`watermarks or logos to the image.`

const defaultAspectRatio = "1:1"

var allowedAspectRatios = map[string]bool{
	"1:1":  true,
	"4:5":  true,
	"5:4":  true,
	"3:4":  true,
	"4:3":  true,
	"9:16": true,
	"16:9": true,
}

// NormalizeAspectRatio maps the requested ratio through the allow-list.
// Empty and unrecognized values fall back to the default.
func NormalizeAspectRatio(ratio string) string {
	if allowedAspectRatios[ratio] {
		return ratio
	}
	return defaultAspectRatio
}

// PromptInput carries the optional steering sections of a job.
type PromptInput struct {
	TemplatePrompt  string
	BusinessType    string
	PlatformTarget  string
	AspectRatio     string
	AdditionalNotes string
}

// ComposePrompt builds the full model prompt. Empty sections are omitted
// entirely so the model never sees blank headers.
func ComposePrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	appendSection(&b, "TEMPLATE STYLE", in.TemplatePrompt)
	appendSection(&b, "BUSINESS CONTEXT", in.BusinessType)
	appendSection(&b, "PLATFORM TARGET", in.PlatformTarget)
	appendSection(&b, "REQUESTED ASPECT RATIO", in.AspectRatio)
	appendSection(&b, "ADDITIONAL INSTRUCTIONS", in.AdditionalNotes)

	return b.String()
}

func appendSection(b *strings.Builder, name, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	b.WriteString("\n\n--- ")
	b.WriteString(name)
	b.WriteString(" ---\n")
	b.WriteString(content)
}
