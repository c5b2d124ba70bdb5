package imagekit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"thumbly/internal/domain"
	"thumbly/internal/thumbgen"
)

const defaultUploadBaseURL = "https://upload.imagekit.io"

// Options configures the asset host client.
type Options struct {
	PublicKey     string
	PrivateKey    string
	UploadBaseURL string
	HTTPClient    *http.Client
	Logger        zerolog.Logger
}

// Client uploads generated images to ImageKit and derives transform URLs.
type Client struct {
	publicKey  string
	privateKey string
	uploadBase string
	client     *http.Client
	logger     zerolog.Logger
}

var _ thumbgen.Publisher = (*Client)(nil)

func NewClient(opts Options) *Client {
	c := &Client{
		publicKey:  opts.PublicKey,
		privateKey: opts.PrivateKey,
		uploadBase: strings.TrimRight(opts.UploadBaseURL, "/"),
		client:     opts.HTTPClient,
		logger:     opts.Logger,
	}
	if c.uploadBase == "" {
		c.uploadBase = defaultUploadBaseURL
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	return c
}

type uploadResponse struct {
	URL      string `json:"url"`
	FileID   string `json:"fileId"`
	FilePath string `json:"filePath"`
	Message  string `json:"message"`
}

// Upload sends one base64 image to the upload endpoint and returns the hosted
// URL. Authentication is HTTP basic with the private key as username.
func (c *Client) Upload(ctx context.Context, upload thumbgen.UploadRequest) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := map[string]string{
		"file":              fmt.Sprintf("data:%s;base64,%s", upload.MimeType, upload.Base64Data),
		"fileName":          upload.FileName,
		"folder":            upload.Folder,
		"tags":              strings.Join(upload.Tags, ","),
		"useUniqueFileName": "false",
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return "", fmt.Errorf("%w: encode form: %v", domain.ErrPublish, err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("%w: encode form: %v", domain.ErrPublish, err)
	}

	url := c.uploadBase + "/api/v1/files/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrPublish, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.SetBasicAuth(c.privateKey, "")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %v", domain.ErrPublish, upload.FileName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrPublish, err)
	}

	var decoded uploadResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrPublish, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("%w: upload %s: status %d: %s", domain.ErrPublish, upload.FileName, resp.StatusCode, msg)
	}
	if decoded.URL == "" {
		return "", fmt.Errorf("%w: upload %s: response carries no url", domain.ErrPublish, upload.FileName)
	}

	c.logger.Debug().Str("file", upload.FileName).Str("url", decoded.URL).Msg("imagekit: uploaded")
	return decoded.URL, nil
}

// TransformURL derives a read-time crop/resize URL for the stored image.
// Same inputs always produce the same URL.
func (c *Client) TransformURL(baseURL string, width, height, quality int) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%str=w-%d,h-%d,c-at_least,fo-center,q-%d,f-auto", baseURL, sep, width, height, quality)
}

// UploadAuth is the signature triple the browser uploader presents to
// ImageKit for direct client-side uploads.
type UploadAuth struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

const uploadAuthTTL = 30 * time.Minute

// NewUploadAuth mints a fresh single-use upload credential.
func (c *Client) NewUploadAuth() UploadAuth {
	token := uuid.NewString()
	expire := time.Now().Add(uploadAuthTTL).Unix()
	return UploadAuth{
		Token:     token,
		Expire:    expire,
		Signature: c.SignUploadAuth(token, expire),
		PublicKey: c.publicKey,
	}
}

// SignUploadAuth computes the ImageKit upload signature: HMAC-SHA1 of
// token+expire keyed by the private key, hex encoded.
func (c *Client) SignUploadAuth(token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(c.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
