package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"thumbly/internal/domain"
	"thumbly/internal/thumbgen"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Options configures the generative model client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client calls the Gemini generateContent REST endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

var _ thumbgen.Model = (*Client)(nil)

func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  opts.HTTPClient,
		logger:  opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = "gemini-2.5-flash-image-preview"
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	return c
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content content `json:"content"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

// Generate submits the instruction and inline images to the model and walks
// the candidates' parts in order, collecting text and image payloads.
//
// Without an API key the call is skipped entirely and an empty output is
// returned, which downstream treats as "model produced nothing".
func (c *Client) Generate(ctx context.Context, instruction string, images []thumbgen.InlineImage) (*thumbgen.ModelOutput, error) {
	if c.apiKey == "" {
		c.logger.Warn().Msg("genai: no api key configured, skipping model call")
		return &thumbgen.ModelOutput{}, nil
	}

	parts := make([]contentPart, 0, len(images)+1)
	parts = append(parts, contentPart{Text: instruction})
	for _, img := range images {
		parts = append(parts, contentPart{InlineData: &inlineData{MimeType: img.Mime, Data: img.Data}})
	}

	payload := generateContentRequest{Contents: []content{{Role: "user", Parts: parts}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrModel, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrModel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: call model: %v", domain.ErrModel, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrModel, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrModel, resp.StatusCode, truncate(raw, 300))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrModel, err)
	}
	if len(decoded.Candidates) == 0 {
		return nil, fmt.Errorf("%w: model returned no candidates", domain.ErrNoCandidates)
	}

	out := &thumbgen.ModelOutput{}
	var texts []string
	for _, cand := range decoded.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
			if p.InlineData != nil && p.InlineData.Data != "" {
				out.Images = append(out.Images, p.InlineData.Data)
			}
		}
	}
	out.Text = strings.Join(texts, "\n\n")

	c.logger.Debug().Int("texts", len(texts)).Int("images", len(out.Images)).Msg("genai: model response parsed")
	return out, nil
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
