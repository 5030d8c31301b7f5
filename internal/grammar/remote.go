package grammar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pdf-revision-engine/internal/domain"
	apperrors "pdf-revision-engine/pkg/errors"
)

// RemoteChecker calls a LanguageTool-compatible /v2/check endpoint.
type RemoteChecker struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

func NewRemoteChecker(baseURL, language string, timeout time.Duration) *RemoteChecker {
	if language == "" {
		language = "en-US"
	}
	return &RemoteChecker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type checkResponse struct {
	Matches []struct {
		Message      string `json:"message"`
		ShortMessage string `json:"shortMessage"`
		Offset       int    `json:"offset"`
		Length       int    `json:"length"`
		Rule         struct {
			ID string `json:"id"`
		} `json:"rule"`
	} `json:"matches"`
}

func (c *RemoteChecker) Check(ctx context.Context, text string) ([]domain.GrammarIssue, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.NewExternalServiceError("build grammar request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("grammar service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewExternalServiceError("grammar service error",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewExternalServiceError("decode grammar response", err)
	}

	issues := make([]domain.GrammarIssue, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		msg := m.Message
		if msg == "" {
			msg = m.ShortMessage
		}
		issues = append(issues, domain.GrammarIssue{
			Message: msg,
			Offset:  m.Offset,
			Length:  m.Length,
			Rule:    m.Rule.ID,
		})
	}
	return issues, nil
}
