package thumbgen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"thumbly/internal/domain"
)

type fakeModel struct {
	out   *ModelOutput
	err   error
	calls int
	seen  []InlineImage
}

func (m *fakeModel) Generate(ctx context.Context, instruction string, images []InlineImage) (*ModelOutput, error) {
	m.calls++
	m.seen = images
	if m.err != nil {
		return nil, m.err
	}
	return m.out, nil
}

type fakePublisher struct {
	calls   int
	uploads []UploadRequest
	failAt  map[int]bool
}

func (p *fakePublisher) Upload(ctx context.Context, req UploadRequest) (string, error) {
	i := p.calls
	p.calls++
	p.uploads = append(p.uploads, req)
	if p.failAt[i] {
		return "", fmt.Errorf("%w: upload rejected", domain.ErrPublish)
	}
	return fmt.Sprintf("https://ik.example.com/%s%s", strings.Trim(req.Folder, "/"), "/"+req.FileName), nil
}

func (p *fakePublisher) TransformURL(baseURL string, width, height, quality int) string {
	return fmt.Sprintf("%s?tr=w-%d,h-%d,c-at_least,fo-center,q-%d,f-auto", baseURL, width, height, quality)
}

func sourceServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, srv *httptest.Server, model Model, pub Publisher) *Service {
	t.Helper()
	return NewService(Options{
		Fetcher:   NewFetcher(srv.Client()),
		Model:     model,
		Publisher: pub,
		Logger:    zerolog.Nop(),
	})
}

func genRequest(srv *httptest.Server, mode string, n int) *GenerateRequest {
	items := make([]UploadItem, n)
	for i := range items {
		items[i] = UploadItem{Name: fmt.Sprintf("src-%d.png", i+1), FileType: "image/png", URL: srv.URL + fmt.Sprintf("/%d", i+1)}
	}
	return &GenerateRequest{Query: "make it pop", UploadResponses: items, Mode: mode}
}

func TestGenerateSingleRatio(t *testing.T) {
	srv := sourceServer(t, []byte("source-bytes"))
	model := &fakeModel{out: &ModelOutput{Text: "bold red title", Images: []string{base64.StdEncoding.EncodeToString([]byte("gen-1"))}}}
	pub := &fakePublisher{}
	s := newTestService(t, srv, model, pub)

	res, err := s.Generate(context.Background(), genRequest(srv, "16-9", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := res.Outputs["thumbnail169"]
	if !ok {
		t.Fatal("missing thumbnail169 output")
	}
	if _, ok := res.Outputs["reel916"]; ok {
		t.Fatal("reel916 should be absent in 16-9 mode")
	}
	if out.Dimensions != "1280x720" {
		t.Fatalf("dimensions = %q, want 1280x720", out.Dimensions)
	}
	if !strings.Contains(out.TransformedURL, "tr=w-1280,h-720") {
		t.Fatalf("transform url wrong: %q", out.TransformedURL)
	}
	if !strings.Contains(out.DownloadURL, "tr=w-1920,h-1080") {
		t.Fatalf("download url wrong: %q", out.DownloadURL)
	}
	if res.ImageURL != out.TransformedURL {
		t.Fatalf("primary url should be the 16:9 transform, got %q", res.ImageURL)
	}
	if res.Text != "bold red title" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Fallback {
		t.Fatal("fallback should be false when the model produced an image")
	}
	if !res.Success {
		t.Fatal("success should be true")
	}
}

func TestGenerateBothRatiosTwoImages(t *testing.T) {
	srv := sourceServer(t, []byte("source-bytes"))
	model := &fakeModel{out: &ModelOutput{Images: []string{
		base64.StdEncoding.EncodeToString([]byte("gen-1")),
		base64.StdEncoding.EncodeToString([]byte("gen-2")),
	}}}
	pub := &fakePublisher{}
	s := newTestService(t, srv, model, pub)

	res, err := s.Generate(context.Background(), genRequest(srv, "both", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Images) != 2 {
		t.Fatalf("images length = %d, want 2", len(res.Images))
	}
	if res.Outputs["thumbnail169"].Dimensions != "1280x720" {
		t.Fatalf("thumbnail169 dimensions = %q", res.Outputs["thumbnail169"].Dimensions)
	}
	if res.Outputs["reel916"].Dimensions != "1080x1920" {
		t.Fatalf("reel916 dimensions = %q", res.Outputs["reel916"].Dimensions)
	}
	if len(res.ThumbnailData) != 2 {
		t.Fatalf("thumbnailData length = %d, want 2", len(res.ThumbnailData))
	}
	// Model text was empty, so a canned message stands in.
	if res.Text == "" {
		t.Fatal("text should never be empty")
	}
}

func TestGenerateFallbackEchoesFirstInput(t *testing.T) {
	source := []byte("first-input-bytes")
	srv := sourceServer(t, source)
	model := &fakeModel{out: &ModelOutput{}}
	pub := &fakePublisher{}
	s := newTestService(t, srv, model, pub)

	res, err := s.Generate(context.Background(), genRequest(srv, "9-16", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Fallback {
		t.Fatal("fallback should be true")
	}
	if len(pub.uploads) != 1 {
		t.Fatalf("expected exactly one publish, got %d", len(pub.uploads))
	}
	if want := base64.StdEncoding.EncodeToString(source); pub.uploads[0].Base64Data != want {
		t.Fatal("fallback should publish the first input image's bytes")
	}
	if res.ImageURL != res.Outputs["reel916"].TransformedURL {
		t.Fatal("9-16 mode should pick the 9:16 transform as primary")
	}
}

func TestGenerateValidationSkipsNetwork(t *testing.T) {
	srv := sourceServer(t, []byte("x"))
	model := &fakeModel{out: &ModelOutput{}}
	pub := &fakePublisher{}
	s := newTestService(t, srv, model, pub)

	req := genRequest(srv, "both", 3)
	_, err := s.Generate(context.Background(), req)
	if !errors.Is(err, domain.ErrTooManyImages) {
		t.Fatalf("expected ErrTooManyImages, got %v", err)
	}
	if model.calls != 0 || pub.calls != 0 {
		t.Fatalf("no external call expected, model=%d publish=%d", model.calls, pub.calls)
	}
}

func TestGenerateNoCandidatesFallsBack(t *testing.T) {
	source := []byte("first-input-bytes")
	srv := sourceServer(t, source)
	model := &fakeModel{err: fmt.Errorf("%w: empty response", domain.ErrNoCandidates)}
	pub := &fakePublisher{}
	s := newTestService(t, srv, model, pub)

	res, err := s.Generate(context.Background(), genRequest(srv, "both", 1))
	if err != nil {
		t.Fatalf("no-candidates should not fail the request: %v", err)
	}
	if !res.Fallback {
		t.Fatal("fallback should be true")
	}
	if len(pub.uploads) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.uploads))
	}
	if want := base64.StdEncoding.EncodeToString(source); pub.uploads[0].Base64Data != want {
		t.Fatal("fallback should publish the first input image's bytes")
	}
}

func TestGenerateModelError(t *testing.T) {
	srv := sourceServer(t, []byte("x"))
	model := &fakeModel{err: fmt.Errorf("%w: boom", domain.ErrModel)}
	s := newTestService(t, srv, model, &fakePublisher{})

	_, err := s.Generate(context.Background(), genRequest(srv, "both", 1))
	if !errors.Is(err, domain.ErrModel) {
		t.Fatalf("expected ErrModel, got %v", err)
	}
}

func TestGeneratePartialPublish(t *testing.T) {
	srv := sourceServer(t, []byte("x"))
	model := &fakeModel{out: &ModelOutput{Images: []string{
		base64.StdEncoding.EncodeToString([]byte("gen-1")),
		base64.StdEncoding.EncodeToString([]byte("gen-2")),
	}}}
	pub := &fakePublisher{failAt: map[int]bool{0: true}}
	s := newTestService(t, srv, model, pub)

	res, err := s.Generate(context.Background(), genRequest(srv, "both", 1))
	if err != nil {
		t.Fatalf("partial publish should still succeed: %v", err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("images length = %d, want 1", len(res.Images))
	}
	// First upload failed, so the surviving second upload is the base.
	if res.Outputs["thumbnail169"].OriginalURL != res.Images[0] {
		t.Fatal("transform base should be the surviving published url")
	}
}

func TestGenerateAllPublishesFail(t *testing.T) {
	srv := sourceServer(t, []byte("x"))
	model := &fakeModel{out: &ModelOutput{Images: []string{base64.StdEncoding.EncodeToString([]byte("gen-1"))}}}
	pub := &fakePublisher{failAt: map[int]bool{0: true}}
	s := newTestService(t, srv, model, pub)

	_, err := s.Generate(context.Background(), genRequest(srv, "both", 1))
	if !errors.Is(err, domain.ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
}

type memCache struct {
	data map[string]string
	gets int
	sets int
}

func (c *memCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(ctx context.Context, key, value string) error {
	c.sets++
	c.data[key] = value
	return nil
}

func TestGenerateCacheRoundTrip(t *testing.T) {
	srv := sourceServer(t, []byte("x"))
	model := &fakeModel{out: &ModelOutput{Images: []string{base64.StdEncoding.EncodeToString([]byte("gen-1"))}}}
	pub := &fakePublisher{}
	cache := &memCache{data: map[string]string{}}
	s := NewService(Options{
		Fetcher:   NewFetcher(srv.Client()),
		Model:     model,
		Publisher: pub,
		Cache:     cache,
		Logger:    zerolog.Nop(),
	})

	req := genRequest(srv, "16-9", 1)
	first, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := s.Generate(context.Background(), genRequest(srv, "16-9", 1))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if model.calls != 1 {
		t.Fatalf("second call should hit the cache, model calls = %d", model.calls)
	}
	if second.ImageURL != first.ImageURL {
		t.Fatal("cached result should match the original")
	}
}

func TestTransformURLDeterministic(t *testing.T) {
	pub := &fakePublisher{}
	a := pub.TransformURL("https://ik.example.com/base.png", 1280, 720, 80)
	b := pub.TransformURL("https://ik.example.com/base.png", 1280, 720, 80)
	if a != b {
		t.Fatalf("transform url not deterministic: %q vs %q", a, b)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"My Photo (1).PNG": "my-photo-1",
		"":                 "image",
		"___":              "image",
		"clean.png":        "clean",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
