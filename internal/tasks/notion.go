package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	notionAPI     = "https://api.notion.com"
	notionVersion = "2022-06-28"
)

// NotionProps names the database properties read for each task.
type NotionProps struct {
	Title  string
	Date   string
	Length string // number property, minutes
	Label  string // text or select property, e.g. "1h 30m"
}

func DefaultNotionProps() NotionProps {
	return NotionProps{Title: "Name", Date: "Date", Length: "Length", Label: "Estimate"}
}

// NotionSource queries a Notion database for tasks dated today or later.
type NotionSource struct {
	Token      string
	DatabaseID string
	Props      NotionProps
	BaseURL    string
	HTTP       *http.Client
}

func NewNotionSource(token, databaseID string, props NotionProps) *NotionSource {
	return &NotionSource{
		Token:      token,
		DatabaseID: databaseID,
		Props:      props,
		BaseURL:    notionAPI,
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

type notionQuery struct {
	Filter   notionFilter `json:"filter"`
	Sorts    []notionSort `json:"sorts"`
	PageSize int          `json:"page_size"`
}

type notionFilter struct {
	Property string            `json:"property"`
	Date     map[string]string `json:"date"`
}

type notionSort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type notionResponse struct {
	Results []notionPage `json:"results"`
}

type notionPage struct {
	ID         string                    `json:"id"`
	Properties map[string]notionProperty `json:"properties"`
}

type notionText struct {
	PlainText string `json:"plain_text"`
}

type notionProperty struct {
	Type     string       `json:"type"`
	Title    []notionText `json:"title"`
	RichText []notionText `json:"rich_text"`
	Number   *float64     `json:"number"`
	Select   *struct {
		Name string `json:"name"`
	} `json:"select"`
	Date *struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date"`
}

func (p notionProperty) text() string {
	var parts []notionText
	switch {
	case len(p.Title) > 0:
		parts = p.Title
	case len(p.RichText) > 0:
		parts = p.RichText
	case p.Select != nil:
		return p.Select.Name
	}
	var b strings.Builder
	for _, t := range parts {
		b.WriteString(t.PlainText)
	}
	return strings.TrimSpace(b.String())
}

func (n *NotionSource) Upcoming(ctx context.Context, now time.Time) ([]Item, error) {
	body, err := json.Marshal(notionQuery{
		Filter: notionFilter{
			Property: n.Props.Date,
			Date:     map[string]string{"on_or_after": startOfDay(now).Format("2006-01-02")},
		},
		Sorts:    []notionSort{{Property: n.Props.Date, Direction: "ascending"}},
		PageSize: 50,
	})
	if err != nil {
		return nil, fmt.Errorf("encode notion query: %w", err)
	}

	url := fmt.Sprintf("%s/v1/databases/%s/query", strings.TrimRight(n.BaseURL, "/"), n.DatabaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+n.Token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("notion error (%d): %s", resp.StatusCode, string(data))
	}

	var out notionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode notion response: %w", err)
	}

	items := make([]Item, 0, len(out.Results))
	for _, page := range out.Results {
		date := page.Properties[n.Props.Date].Date
		if date == nil || date.Start == "" {
			continue
		}
		it := Item{
			ID:    page.ID,
			Title: page.Properties[n.Props.Title].text(),
			Start: date.Start,
			End:   date.End,
			Label: page.Properties[n.Props.Label].text(),
		}
		if num := page.Properties[n.Props.Length].Number; num != nil {
			v := *num
			it.LengthMin = &v
		}
		items = append(items, it)
	}
	return items, nil
}
