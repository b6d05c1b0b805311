package ui

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QR renders content as a QR code drawn with half-block characters.
func QR(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encoding QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}

// WriteQRPNG writes content as a size×size PNG QR code to path.
func WriteQRPNG(content, path string, size int) error {
	if err := qrcode.WriteFile(content, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("writing QR code: %w", err)
	}
	return nil
}
