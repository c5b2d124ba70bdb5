package thumbgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"thumbly/internal/domain"
	"thumbly/internal/metrics"
)

// ModelOutput is what the generative model produced for one call: optional
// text and zero or more base64 images, in response order.
type ModelOutput struct {
	Text   string
	Images []string
}

// Model is the generative image backend.
type Model interface {
	Generate(ctx context.Context, instruction string, images []InlineImage) (*ModelOutput, error)
}

// UploadRequest describes one asset upload.
type UploadRequest struct {
	Base64Data string
	MimeType   string
	FileName   string
	Folder     string
	Tags       []string
}

// Publisher is the asset host: stores generated images and derives exact-size
// variants at read time.
type Publisher interface {
	Upload(ctx context.Context, req UploadRequest) (string, error)
	TransformURL(baseURL string, width, height, quality int) string
}

// Cache is an optional response cache for identical requests.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

const (
	viewQuality     = 80
	downloadQuality = 90

	defaultFetchTimeout   = 15 * time.Second
	defaultModelTimeout   = 120 * time.Second
	defaultPublishTimeout = 30 * time.Second
)

// Options configures a Service. Fetcher, Model and Publisher are required;
// Cache is optional.
type Options struct {
	Fetcher   *Fetcher
	Model     Model
	Publisher Publisher
	Cache     Cache
	Logger    zerolog.Logger
	Folder    string

	FetchTimeout   time.Duration
	ModelTimeout   time.Duration
	PublishTimeout time.Duration
}

// Service runs the generation pipeline: validate, fetch sources, invoke the
// model, publish results, assemble the response.
type Service struct {
	fetcher   *Fetcher
	model     Model
	publisher Publisher
	cache     Cache
	logger    zerolog.Logger
	folder    string

	fetchTimeout   time.Duration
	modelTimeout   time.Duration
	publishTimeout time.Duration

	now func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		fetcher:        opts.Fetcher,
		model:          opts.Model,
		publisher:      opts.Publisher,
		cache:          opts.Cache,
		logger:         opts.Logger,
		folder:         opts.Folder,
		fetchTimeout:   opts.FetchTimeout,
		modelTimeout:   opts.ModelTimeout,
		publishTimeout: opts.PublishTimeout,
		now:            time.Now,
	}
	if s.folder == "" {
		s.folder = "/generated/thumbnails"
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = defaultFetchTimeout
	}
	if s.modelTimeout <= 0 {
		s.modelTimeout = defaultModelTimeout
	}
	if s.publishTimeout <= 0 {
		s.publishTimeout = defaultPublishTimeout
	}
	return s
}

// Generate runs one request end to end. Validation errors return before any
// network call; collaborator errors abort the rest of the pipeline.
func (s *Service) Generate(ctx context.Context, req *GenerateRequest) (*Result, error) {
	v, err := ValidateRequest(req)
	if err != nil {
		return nil, err
	}

	key := cacheKey(v)
	if s.cache != nil {
		raw, ok, cerr := s.cache.Get(ctx, key)
		if cerr != nil {
			s.logger.Warn().Err(cerr).Msg("thumbgen: cache lookup failed")
		} else if ok {
			var cached Result
			if jerr := json.Unmarshal([]byte(raw), &cached); jerr == nil {
				s.logger.Debug().Str("key", key).Msg("thumbgen: cache hit")
				return &cached, nil
			}
		}
	}

	instruction := ComposeInstruction(v.Query, v.Mode)

	inputs := make([]InlineImage, 0, len(v.Images))
	for _, img := range v.Images {
		fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		data, ferr := s.fetcher.FetchBase64(fctx, img.URL)
		cancel()
		if ferr != nil {
			return nil, ferr
		}
		inputs = append(inputs, InlineImage{Data: data, Mime: img.Mime})
	}

	mctx, cancel := context.WithTimeout(ctx, s.modelTimeout)
	out, err := s.model.Generate(mctx, instruction, inputs)
	cancel()
	if err != nil {
		// An empty candidate list is absorbed by the fallback policy below
		// rather than failing the request.
		if !errors.Is(err, domain.ErrNoCandidates) {
			return nil, err
		}
		out = &ModelOutput{}
	}

	images := out.Images
	fallback := false
	if len(images) == 0 {
		// Echo the first input so there is always something to publish.
		images = []string{inputs[0].Data}
		fallback = true
		s.logger.Warn().Str("mode", string(v.Mode)).Msg("thumbgen: model returned no image, using first input as fallback")
	}

	mime := v.Images[0].Mime
	slug := slugify(v.Images[0].Name)
	stamp := s.now().Unix()

	published := make([]string, len(images))
	publishedCount := 0
	for i, data := range images {
		name := fmt.Sprintf("thumb-%s-%s-%d-%d%s", v.Mode, slug, stamp, i+1, extForMime(mime))
		pctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		url, perr := s.publisher.Upload(pctx, UploadRequest{
			Base64Data: data,
			MimeType:   mime,
			FileName:   name,
			Folder:     s.folder,
			Tags:       []string{"thumbnail", string(v.Mode), "ai-generated"},
		})
		cancel()
		if perr != nil {
			metrics.PublishTotal("error")
			s.logger.Warn().Err(perr).Int("index", i).Msg("thumbgen: publish failed, keeping remaining images")
			continue
		}
		metrics.PublishTotal("ok")
		published[i] = url
		publishedCount++
	}
	if publishedCount == 0 {
		return nil, fmt.Errorf("%w: no image could be published", domain.ErrPublish)
	}

	// Transform base is the first successfully published image, or the last
	// one when the first upload failed.
	base := published[0]
	if base == "" {
		for i := len(published) - 1; i >= 0; i-- {
			if published[i] != "" {
				base = published[i]
				break
			}
		}
	}

	urls := make([]string, 0, publishedCount)
	for _, u := range published {
		if u != "" {
			urls = append(urls, u)
		}
	}

	outputs := make(map[string]PublishedThumbnail)
	thumbnailData := make([]PublishedThumbnail, 0, 2)
	for _, as := range v.Mode.Aspects() {
		t := PublishedThumbnail{
			Aspect:         as.Aspect,
			Label:          as.Label,
			Platform:       as.Platform,
			OriginalURL:    base,
			TransformedURL: s.publisher.TransformURL(base, as.ViewWidth, as.ViewHeight, viewQuality),
			DownloadURL:    s.publisher.TransformURL(base, as.HDWidth, as.HDHeight, downloadQuality),
			Width:          as.ViewWidth,
			Height:         as.ViewHeight,
			Dimensions:     fmt.Sprintf("%dx%d", as.ViewWidth, as.ViewHeight),
		}
		outputs[as.Key] = t
		thumbnailData = append(thumbnailData, t)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		text = cannedMessage(v.Mode, v.Locale)
	}

	primary := outputs[aspect169.Key].TransformedURL
	if v.Mode == Mode916 {
		primary = outputs[aspect916.Key].TransformedURL
	}

	res := &Result{
		Text:          text,
		ImageURL:      primary,
		Images:        urls,
		Outputs:       outputs,
		ThumbnailData: thumbnailData,
		Message:       successMessage(v.Locale),
		Fallback:      fallback,
		Success:       true,
	}

	if s.cache != nil {
		if raw, jerr := json.Marshal(res); jerr == nil {
			if cerr := s.cache.Set(ctx, key, string(raw)); cerr != nil {
				s.logger.Warn().Err(cerr).Msg("thumbgen: cache store failed")
			}
		}
	}

	return res, nil
}

// cacheKey hashes the request's observable inputs. Locale is included because
// canned messages vary by locale.
func cacheKey(v *ValidatedRequest) string {
	h := sha256.New()
	h.Write([]byte(v.Query))
	h.Write([]byte{0})
	h.Write([]byte(v.Mode))
	h.Write([]byte{0})
	h.Write([]byte(v.Locale))
	for _, img := range v.Images {
		h.Write([]byte{0})
		h.Write([]byte(img.URL))
	}
	return "thumbly:gen:" + hex.EncodeToString(h.Sum(nil))
}

func slugify(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "image"
	}
	return out
}

func extForMime(mime string) string {
	switch mime {
	case MimePNG:
		return ".png"
	case MimeWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}
