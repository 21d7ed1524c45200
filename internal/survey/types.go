// Package survey talks to the external survey API and turns raw responses
// into something a human can triage.
package survey

// Response is one survey submission as returned by the bulk responses call.
type Response struct {
	ID         string `json:"id"`
	AnalyzeURL string `json:"analyze_url,omitempty"`
	Pages      []Page `json:"pages"`
}

type Page struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID      string   `json:"id"`
	Answers []Answer `json:"answers"`
}

// Answer carries either free text or a choice identifier. Both may be empty.
type Answer struct {
	Text     string `json:"text,omitempty"`
	ChoiceID string `json:"choice_id,omitempty"`
	RowID    string `json:"row_id,omitempty"`
}

// QuestionMetadata maps question ID to its display title.
type QuestionMetadata map[string]string

// ChoiceMetadata maps question ID to choice ID to display label.
type ChoiceMetadata map[string]map[string]string

// Metadata bundles the reference data fetched once per process.
type Metadata struct {
	Questions QuestionMetadata
	Choices   ChoiceMetadata
}

type bulkResponse struct {
	Data []Response `json:"data"`
}

type detailsResponse struct {
	Pages []detailsPage `json:"pages"`
}

type detailsPage struct {
	Questions []detailsQuestion `json:"questions"`
}

type detailsQuestion struct {
	ID       string           `json:"id"`
	Headings []detailsHeading `json:"headings"`
	Answers  struct {
		Choices []detailsChoice `json:"choices"`
	} `json:"answers"`
}

type detailsHeading struct {
	Heading string `json:"heading"`
}

type detailsChoice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
