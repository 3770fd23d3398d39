package helper

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRDataURL renders a pairing payload as a PNG data URL for frontends that
// show the code as an <img>. Empty payloads yield an empty string so callers
// can JSON-encode the field as null-ish without a second check.
func QRDataURL(payload string) (string, error) {
	if payload == "" {
		return "", nil
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
