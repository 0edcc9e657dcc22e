//go:build !ocr

package ocr

import "context"

// Enabled reports whether OCR support is compiled in.
func Enabled() bool { return false }

// Client is the placeholder used when OCR is not compiled in.
type Client struct{}

// New always fails with ErrOCRNotEnabled.
func New(lang string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op; it is safe on a nil Client.
func (c *Client) Close() error {
	return nil
}

// Recognize always fails with ErrOCRNotEnabled.
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

// RecognizeAll always fails with ErrOCRNotEnabled.
func (c *Client) RecognizeAll(ctx context.Context, images [][]byte) (string, error) {
	return "", ErrOCRNotEnabled
}
