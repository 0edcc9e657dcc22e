//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether OCR support is compiled in.
func Enabled() bool { return true }

// Client recognizes text with Tesseract. It is safe for concurrent use;
// recognitions are serialized because a Tesseract handle is not.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New returns a Client for lang, a "+" separated list of Tesseract
// languages such as "eng+fra". An empty lang means DefaultLanguage.
// Close must be called to release the engine.
func New(lang string) (*Client, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting OCR language %q: %w", lang, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting page segmentation: %w", err)
	}
	return &Client{client: client}, nil
}

// Close releases the engine. It is safe on a nil Client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.client.Close()
	c.client = nil
	return err
}

// Recognize returns the trimmed text found in one encoded image (PNG, JPEG,
// TIFF, ...).
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return "", fmt.Errorf("ocr: client closed")
	}
	if err := c.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("loading image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// RecognizeAll recognizes every image and joins the non-empty results with
// blank lines. It stops at the first failure.
func (c *Client) RecognizeAll(ctx context.Context, images [][]byte) (string, error) {
	var parts []string
	for i, img := range images {
		text, err := c.Recognize(ctx, img)
		if err != nil {
			return "", fmt.Errorf("image %d: %w", i, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
