package survey

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Client fetches responses and survey details from the survey API.
// Every fetch degrades to an empty result on failure; callers never see an
// error, only a logged diagnostic.
type Client struct {
	baseURL    string
	surveyID   string
	token      string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for one survey. pageSize <= 0 omits per_page.
func NewClient(baseURL, surveyID, token string, pageSize int) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		surveyID: surveyID,
		token:    token,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default(),
	}
}

// FetchResponses returns all responses for the survey, or nil on failure.
func (c *Client) FetchResponses(ctx context.Context) []Response {
	q := url.Values{}
	if c.pageSize > 0 {
		q.Set("per_page", strconv.Itoa(c.pageSize))
	}

	var bulk bulkResponse
	if err := c.getJSON(ctx, "/responses/bulk", q, &bulk); err != nil {
		c.logger.Warn("fetching survey responses failed", "survey_id", c.surveyID, "error", err)
		return nil
	}
	return bulk.Data
}

// FetchQuestionMetadata returns question titles keyed by question ID.
func (c *Client) FetchQuestionMetadata(ctx context.Context) QuestionMetadata {
	return c.FetchMetadata(ctx).Questions
}

// FetchChoiceMetadata returns choice labels keyed by question and choice ID.
func (c *Client) FetchChoiceMetadata(ctx context.Context) ChoiceMetadata {
	return c.FetchMetadata(ctx).Choices
}

// FetchMetadata reads the survey details once and builds both lookup maps.
// On failure both maps are empty (never nil).
func (c *Client) FetchMetadata(ctx context.Context) Metadata {
	md := Metadata{
		Questions: QuestionMetadata{},
		Choices:   ChoiceMetadata{},
	}

	var details detailsResponse
	if err := c.getJSON(ctx, "/details", nil, &details); err != nil {
		c.logger.Warn("fetching survey details failed", "survey_id", c.surveyID, "error", err)
		return md
	}

	for _, p := range details.Pages {
		for _, q := range p.Questions {
			if len(q.Headings) > 0 {
				md.Questions[q.ID] = q.Headings[0].Heading
			}
			if len(q.Answers.Choices) == 0 {
				continue
			}
			choices := make(map[string]string, len(q.Answers.Choices))
			for _, ch := range q.Answers.Choices {
				choices[ch.ID] = ch.Text
			}
			md.Choices[q.ID] = choices
		}
	}
	return md
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.baseURL + "/surveys/" + url.PathEscape(c.surveyID) + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
