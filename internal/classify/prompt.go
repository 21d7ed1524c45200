package classify

import (
	"fmt"

	"github.com/kalambet/studybot/internal/llm"
)

const systemPrompt = `You are a triage assistant for a research study.
Return a JSON object with:
  decision: "YES", "NO", or "UNSURE"
  reason: a 1-sentence rationale (at most 30 words).
  summary: a concise summary of the email body (at most 200 characters).

Rules:
- "YES" if the email is related to the study (e.g., interest, inquiry, follow-up).
- "NO" only if clearly unrelated (e.g., spam, unrelated job offers).
- "UNSURE" for anything ambiguous.
Return only a JSON object. No extra commentary.`

// BuildPrompt constructs the chat messages for classifying one email.
func BuildPrompt(subject, body string) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Subject: %s\n\nBody:\n%s", subject, body)},
	}
}
