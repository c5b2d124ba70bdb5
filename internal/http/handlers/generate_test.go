package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"thumbly/internal/infra"
	"thumbly/internal/thumbgen"
)

type stubModel struct {
	images []string
	calls  int
}

func (m *stubModel) Generate(ctx context.Context, instruction string, images []thumbgen.InlineImage) (*thumbgen.ModelOutput, error) {
	m.calls++
	return &thumbgen.ModelOutput{Text: "looks sharp", Images: m.images}, nil
}

type stubPublisher struct {
	calls int
}

func (p *stubPublisher) Upload(ctx context.Context, req thumbgen.UploadRequest) (string, error) {
	p.calls++
	return "https://ik.example.com/generated/thumbnails/" + req.FileName, nil
}

func (p *stubPublisher) TransformURL(baseURL string, width, height, quality int) string {
	return fmt.Sprintf("%s?tr=w-%d,h-%d,c-at_least,fo-center,q-%d,f-auto", baseURL, width, height, quality)
}

func testApp(t *testing.T, model thumbgen.Model, pub thumbgen.Publisher, srcClient *http.Client) *App {
	t.Helper()
	svc := thumbgen.NewService(thumbgen.Options{
		Fetcher:   thumbgen.NewFetcher(srcClient),
		Model:     model,
		Publisher: pub,
		Logger:    zerolog.Nop(),
	})
	cfg := &infra.Config{
		AppEnv:            "test",
		AccessTokenSecret: "test-secret",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   time.Hour,
	}
	cfg.RefreshTokenSecret = cfg.AccessTokenSecret
	return NewApp(zerolog.Nop(), cfg, svc, nil, nil)
}

func postGenerate(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.Generate(rec, req)
	return rec
}

func generateBody(srvURL, mode string, n int) string {
	items := make([]map[string]string, n)
	for i := range items {
		items[i] = map[string]string{
			"name":     fmt.Sprintf("src-%d.png", i+1),
			"fileType": "image/png",
			"url":      fmt.Sprintf("%s/%d", srvURL, i+1),
		}
	}
	raw, _ := json.Marshal(map[string]any{"query": "make it pop", "uploadResponses": items, "mode": mode})
	return string(raw)
}

func TestGenerateSixteenNine(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("src-bytes"))
	}))
	defer src.Close()

	model := &stubModel{images: []string{base64.StdEncoding.EncodeToString([]byte("gen"))}}
	app := testApp(t, model, &stubPublisher{}, src.Client())

	rec := postGenerate(t, app, generateBody(src.URL, "16-9", 1))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var res thumbgen.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success {
		t.Fatal("success should be true")
	}
	out, ok := res.Outputs["thumbnail169"]
	if !ok {
		t.Fatal("missing thumbnail169")
	}
	if out.Dimensions != "1280x720" {
		t.Fatalf("dimensions = %q", out.Dimensions)
	}
	if _, ok := res.Outputs["reel916"]; ok {
		t.Fatal("reel916 should be absent")
	}
}

func TestGenerateBothModes(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("src-bytes"))
	}))
	defer src.Close()

	model := &stubModel{images: []string{
		base64.StdEncoding.EncodeToString([]byte("gen-1")),
		base64.StdEncoding.EncodeToString([]byte("gen-2")),
	}}
	app := testApp(t, model, &stubPublisher{}, src.Client())

	rec := postGenerate(t, app, generateBody(src.URL, "both", 2))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var res thumbgen.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Images) != 2 {
		t.Fatalf("images length = %d, want 2", len(res.Images))
	}
	if res.Outputs["thumbnail169"].Dimensions != "1280x720" || res.Outputs["reel916"].Dimensions != "1080x1920" {
		t.Fatalf("outputs wrong: %+v", res.Outputs)
	}
}

func TestGenerateTooManyImages(t *testing.T) {
	model := &stubModel{}
	pub := &stubPublisher{}
	app := testApp(t, model, pub, &http.Client{})

	rec := postGenerate(t, app, generateBody("http://127.0.0.1:1", "both", 3))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if model.calls != 0 || pub.calls != 0 {
		t.Fatal("validation failure must not reach the model or publisher")
	}
	if !strings.Contains(rec.Body.String(), "maximum") {
		t.Fatalf("message should mention the maximum: %s", rec.Body.String())
	}
}

func TestGenerateUnsupportedFormat(t *testing.T) {
	model := &stubModel{}
	pub := &stubPublisher{}
	app := testApp(t, model, pub, &http.Client{})

	body := `{"query":"x","uploadResponses":[{"name":"anim.gif","fileType":"image/gif","url":"http://127.0.0.1:1/a.gif"}]}`
	rec := postGenerate(t, app, body)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
	if model.calls != 0 || pub.calls != 0 {
		t.Fatal("unsupported format must not reach the model or publisher")
	}
}

func TestGenerateUnparseableBody(t *testing.T) {
	app := testApp(t, &stubModel{}, &stubPublisher{}, &http.Client{})

	rec := postGenerate(t, app, "{not json")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	var body failBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Success {
		t.Fatal("success should be false")
	}
	if body.Error == "" || body.Message == "" {
		t.Fatalf("error body incomplete: %+v", body)
	}
}

func TestGenerateMissingQuery(t *testing.T) {
	app := testApp(t, &stubModel{}, &stubPublisher{}, &http.Client{})

	rec := postGenerate(t, app, `{"uploadResponses":[{"name":"a.png","url":"http://127.0.0.1:1/a.png"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
