package thumbgen

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"thumbly/internal/domain"
)

// InlineImage is a transport-safe source image for the model call.
type InlineImage struct {
	Data string // base64, no data-URI prefix
	Mime string
}

// Fetcher retrieves hosted source images.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{client: client}
}

// FetchBase64 downloads the image at url and returns its bytes base64-encoded.
func (f *Fetcher) FetchBase64(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request for %s: %v", domain.ErrSourceFetch, url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", domain.ErrSourceFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: get %s: status %d", domain.ErrSourceFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrSourceFetch, url, err)
	}

	return base64.StdEncoding.EncodeToString(body), nil
}
