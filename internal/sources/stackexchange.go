package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/paws-and-plates/lead-radar/internal/models"
)

// StackExchangeSource fetches recent feeding-tagged questions from a
// Stack Exchange site (pets.stackexchange.com by default). The API
// needs no authentication for read-only listing; an optional key
// raises the quota.
type StackExchangeSource struct {
	client  *resty.Client
	retry   RetryPolicy
	apiKey  string
	baseURL string
	tags    []string
}

var _ Source = (*StackExchangeSource)(nil)

type stackExchangeResponse struct {
	Items []stackExchangeQuestion `json:"items"`
}

type stackExchangeQuestion struct {
	QuestionID   int64    `json:"question_id"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Tags         []string `json:"tags"`
	CreationDate int64    `json:"creation_date"`
	Link         string   `json:"link"`
	Owner        struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
}

// NewStackExchangeSource creates a Stack Exchange source.
func NewStackExchangeSource(apiKey string, retry RetryPolicy) *StackExchangeSource {
	return &StackExchangeSource{
		client: resty.New().
			SetTimeout(15*time.Second).
			SetHeader("User-Agent", userAgent),
		retry:   retry,
		apiKey:  apiKey,
		baseURL: "https://api.stackexchange.com/2.3",
		tags:    []string{"feeding", "diet", "nutrition"},
	}
}

func (s *StackExchangeSource) Name() string {
	return "stackexchange"
}

func (s *StackExchangeSource) IsEnabled() bool {
	return true // listing questions requires no credentials
}

// FetchNew returns the newest feeding-tagged questions on the site
// named by channel (e.g. "pets.stackexchange" polls the pets site).
func (s *StackExchangeSource) FetchNew(ctx context.Context, channel string) ([]models.Item, error) {
	site := strings.TrimSuffix(channel, ".stackexchange")

	req := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"site":     site,
			"tagged":   strings.Join(s.tags, ";"),
			"sort":     "creation",
			"order":    "desc",
			"pagesize": "50",
			"filter":   "withbody",
		})
	if s.apiKey != "" {
		req.SetQueryParam("key", s.apiKey)
	}

	resp, err := s.retry.Do(ctx, "stackexchange questions "+site, func() (*resty.Response, error) {
		return req.Get(s.baseURL + "/questions")
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("stack exchange API returned status %d", resp.StatusCode())
	}

	var parsed stackExchangeResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse stack exchange response: %w", err)
	}

	var items []models.Item
	for _, q := range parsed.Items {
		items = append(items, models.Item{
			ID:        fmt.Sprintf("se_%d", q.QuestionID),
			Source:    "stackexchange",
			Channel:   channel,
			Author:    q.Owner.DisplayName,
			Title:     q.Title,
			Body:      stripHTMLTags(q.Body),
			CreatedAt: time.Unix(q.CreationDate, 0).UTC(),
			URL:       q.Link,
		})
	}
	return items, nil
}

// stripHTMLTags flattens the API's HTML bodies into plain text and
// decodes entities like &amp; and &quot;. Good enough for substring
// matching; not a real HTML parser.
func stripHTMLTags(content string) string {
	content = strings.ReplaceAll(content, "<p>", "\n")
	content = strings.ReplaceAll(content, "</p>", "\n")
	content = strings.ReplaceAll(content, "<br>", "\n")
	content = strings.ReplaceAll(content, "<br/>", "\n")
	content = strings.ReplaceAll(content, "<code>", "`")
	content = strings.ReplaceAll(content, "</code>", "`")

	for strings.Contains(content, "<") && strings.Contains(content, ">") {
		start := strings.Index(content, "<")
		end := strings.Index(content, ">")
		if start < end {
			content = content[:start] + content[end+1:]
		} else {
			break
		}
	}

	return strings.TrimSpace(html.UnescapeString(content))
}
