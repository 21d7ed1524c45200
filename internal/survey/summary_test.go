package survey

import "testing"

func single(q Question) Response {
	return Response{ID: "R1", Pages: []Page{{ID: "P1", Questions: []Question{q}}}}
}

func TestSummarize_EmailIsBareValue(t *testing.T) {
	qm := QuestionMetadata{"Q1": "Email Address"}
	got := Summarize(single(Question{ID: "Q1", Answers: []Answer{{Text: "a@b.com"}}}), qm, nil)
	if got != "a@b.com" {
		t.Errorf("Summarize() = %q, want %q", got, "a@b.com")
	}
}

func TestSummarize_NameIsCaseInsensitive(t *testing.T) {
	qm := QuestionMetadata{"Q1": "Your full NAME"}
	got := Summarize(single(Question{ID: "Q1", Answers: []Answer{{Text: "Jane Doe"}, {Text: "ignored"}}}), qm, nil)
	if got != "Jane Doe" {
		t.Errorf("Summarize() = %q, want %q", got, "Jane Doe")
	}
}

func TestSummarize_UnknownChoice(t *testing.T) {
	qm := QuestionMetadata{"Q1": "Favourite colour"}
	cm := ChoiceMetadata{"Q1": {"c1": "Blue"}}
	got := Summarize(single(Question{ID: "Q1", Answers: []Answer{{ChoiceID: "c9"}}}), qm, cm)
	want := "Favourite colour\nUnknown"
	if got != want {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
}

func TestSummarize_MultipleAnswersJoined(t *testing.T) {
	qm := QuestionMetadata{"Q1": "Which days work?"}
	cm := ChoiceMetadata{"Q1": {"mon": "Monday", "tue": "Tuesday"}}
	q := Question{ID: "Q1", Answers: []Answer{
		{ChoiceID: "mon"},
		{ChoiceID: "tue"},
		{Text: "weekends too"},
		{},
	}}
	got := Summarize(single(q), qm, cm)
	want := "Which days work?\nMonday; Tuesday; weekends too; N/A"
	if got != want {
		t.Errorf("Summarize() = %q, want %q", got, want)
	}
}

func TestSummarize_NoAnswersAndFallbackTitle(t *testing.T) {
	r := Response{ID: "R1", Pages: []Page{
		{ID: "P1", Questions: []Question{
			{ID: "Q1"},
			{ID: "Q2", Answers: []Answer{{Text: "Yes"}}},
		}},
		{ID: "P2", Questions: []Question{
			{ID: "Q3", Answers: []Answer{{Text: "jane@example.com"}}},
		}},
	}}
	qm := QuestionMetadata{"Q1": "Age", "Q3": "E-mail / email"}

	got := Summarize(r, qm, nil)
	want := "Age\nN/A\n\nQuestion Q2\nYes\n\njane@example.com"
	if got != want {
		t.Errorf("Summarize() =\n%q\nwant\n%q", got, want)
	}
}

func TestSummarize_IdentityQuestionWithoutAnswers(t *testing.T) {
	qm := QuestionMetadata{"Q1": "Name"}
	got := Summarize(single(Question{ID: "Q1"}), qm, nil)
	if got != "Name\nN/A" {
		t.Errorf("Summarize() = %q, want %q", got, "Name\nN/A")
	}
}

func TestExtractIdentity(t *testing.T) {
	r := Response{ID: "R1", Pages: []Page{{ID: "P1", Questions: []Question{
		{ID: "Q1", Answers: []Answer{{Text: " Jane Doe "}}},
		{ID: "Q2", Answers: []Answer{{Text: "jane@example.com"}}},
		{ID: "Q3", Answers: []Answer{{Text: "second@example.com"}}},
		{ID: "Q4", Answers: []Answer{{Text: "42"}}},
	}}}}
	qm := QuestionMetadata{"Q1": "Full name", "Q2": "Email", "Q3": "Backup email", "Q4": "Age"}

	name, email := ExtractIdentity(r, qm, nil)
	if name != "Jane Doe" {
		t.Errorf("name = %q, want %q", name, "Jane Doe")
	}
	if email != "jane@example.com" {
		t.Errorf("email = %q, want %q", email, "jane@example.com")
	}
}
