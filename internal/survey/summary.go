package survey

import (
	"fmt"
	"strings"
)

const (
	notAnswered   = "N/A"
	unknownChoice = "Unknown"
)

// Summarize renders every question of r, in page then question order, as a
// block of human-readable text. Blocks are separated by a blank line.
//
// Questions whose title mentions "name" or "email" are rendered as the bare
// answer value without a title line.
func Summarize(r Response, qm QuestionMetadata, cm ChoiceMetadata) string {
	var blocks []string
	for _, p := range r.Pages {
		for _, q := range p.Questions {
			blocks = append(blocks, summarizeQuestion(q, qm, cm))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func summarizeQuestion(q Question, qm QuestionMetadata, cm ChoiceMetadata) string {
	title := questionTitle(q.ID, qm)

	if len(q.Answers) == 0 {
		return title + "\n" + notAnswered
	}
	if isIdentityTitle(title) {
		return answerValue(q.ID, q.Answers[0], cm)
	}

	values := make([]string, len(q.Answers))
	for i, a := range q.Answers {
		values[i] = answerValue(q.ID, a, cm)
	}
	return title + "\n" + strings.Join(values, "; ")
}

// ExtractIdentity returns the first bare answers of the email- and
// name-titled questions. Either value may be empty.
func ExtractIdentity(r Response, qm QuestionMetadata, cm ChoiceMetadata) (name, email string) {
	for _, p := range r.Pages {
		for _, q := range p.Questions {
			if len(q.Answers) == 0 {
				continue
			}
			title := strings.ToLower(questionTitle(q.ID, qm))
			value := strings.TrimSpace(answerValue(q.ID, q.Answers[0], cm))
			switch {
			case strings.Contains(title, "email"):
				if email == "" {
					email = value
				}
			case strings.Contains(title, "name"):
				if name == "" {
					name = value
				}
			}
		}
	}
	return name, email
}

func questionTitle(id string, qm QuestionMetadata) string {
	if title, ok := qm[id]; ok && title != "" {
		return title
	}
	return fmt.Sprintf("Question %s", id)
}

func isIdentityTitle(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "name") || strings.Contains(t, "email")
}

func answerValue(questionID string, a Answer, cm ChoiceMetadata) string {
	switch {
	case a.Text != "":
		return a.Text
	case a.ChoiceID != "":
		if label, ok := cm[questionID][a.ChoiceID]; ok {
			return label
		}
		return unknownChoice
	default:
		return notAnswered
	}
}
