package thumbgen

import "strings"

// Mode selects which thumbnail aspect ratios a request produces.
type Mode string

const (
	ModeBoth Mode = "both"
	Mode169  Mode = "16-9"
	Mode916  Mode = "9-16"
)

// ParseMode normalizes the client-supplied mode, defaulting to both ratios.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Mode169):
		return Mode169
	case string(Mode916):
		return Mode916
	default:
		return ModeBoth
	}
}

// UploadItem mirrors one client-side upload record. The hosted location may
// arrive under any of url/path/imageUrl depending on the uploader version.
type UploadItem struct {
	Name     string `json:"name"`
	FileType string `json:"fileType"`
	URL      string `json:"url"`
	Path     string `json:"path"`
	ImageURL string `json:"imageUrl"`
	Size     int64  `json:"size"`
}

// SourceURL returns the first non-empty hosted locator.
func (u UploadItem) SourceURL() string {
	for _, v := range []string{u.URL, u.Path, u.ImageURL} {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// GenerateRequest is the decoded POST /generate body.
type GenerateRequest struct {
	Query           string       `json:"query"`
	UploadResponses []UploadItem `json:"uploadResponses"`
	Mode            string       `json:"mode"`

	// Locale is set by the handler from the request context, never by the client.
	Locale string `json:"-"`
}

// SourceImage is one validated input image.
type SourceImage struct {
	URL  string
	Name string
	Mime string
}

// ValidatedRequest is the outcome of request validation; every field is safe
// to hand to the pipeline.
type ValidatedRequest struct {
	Query  string
	Images []SourceImage
	Mode   Mode
	Locale string
}

// AspectSpec fixes the pixel dimensions for one output ratio. Viewing and
// download sizes are exact; the asset host crops to them on read.
type AspectSpec struct {
	Key        string
	Aspect     string
	Label      string
	Platform   string
	ViewWidth  int
	ViewHeight int
	HDWidth    int
	HDHeight   int
}

var (
	aspect169 = AspectSpec{
		Key:        "thumbnail169",
		Aspect:     "16:9",
		Label:      "16:9 YouTube",
		Platform:   "youtube",
		ViewWidth:  1280,
		ViewHeight: 720,
		HDWidth:    1920,
		HDHeight:   1080,
	}
	aspect916 = AspectSpec{
		Key:        "reel916",
		Aspect:     "9:16",
		Label:      "9:16 Shorts",
		Platform:   "shorts",
		ViewWidth:  1080,
		ViewHeight: 1920,
		HDWidth:    1080,
		HDHeight:   1920,
	}
)

// Aspects lists the output ratios requested by the mode, 16:9 first.
func (m Mode) Aspects() []AspectSpec {
	switch m {
	case Mode169:
		return []AspectSpec{aspect169}
	case Mode916:
		return []AspectSpec{aspect916}
	default:
		return []AspectSpec{aspect169, aspect916}
	}
}

// PublishedThumbnail is one per-ratio output record. It is recomputable from
// the published base URL and never persisted.
type PublishedThumbnail struct {
	Aspect         string `json:"aspect"`
	Label          string `json:"label"`
	Platform       string `json:"platform"`
	OriginalURL    string `json:"originalUrl"`
	TransformedURL string `json:"transformedUrl"`
	DownloadURL    string `json:"downloadUrl"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Dimensions     string `json:"dimensions"`
}

// Result is the assembled response payload for a generation request.
type Result struct {
	Text          string                        `json:"text"`
	ImageURL      string                        `json:"imageUrl"`
	Images        []string                      `json:"images"`
	Outputs       map[string]PublishedThumbnail `json:"outputs"`
	ThumbnailData []PublishedThumbnail          `json:"thumbnailData"`
	Message       string                        `json:"message"`
	Fallback      bool                          `json:"fallback"`
	Success       bool                          `json:"success"`
}
