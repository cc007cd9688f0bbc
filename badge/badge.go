/*
Package badge provisions employee check-in credentials: the opaque access
token embedded in the check-in URL and the QR badge image that carries it.

Tokens are bearer credentials. Regenerating a badge keeps the token and
only rewrites the image file.
*/
package badge

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/warp/attendance-engine/engine"
)

// tokenBytes of entropy per token; encodes to 32 URL-safe characters.
const tokenBytes = 24

// NewToken returns a fresh URL-safe access token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CheckinURL builds the public check-in URL a badge points at.
func CheckinURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/checkin/" + token
}

// Filename returns the badge image name for an employee.
func Filename(id engine.EmployeeID) string {
	return fmt.Sprintf("employee_%s.png", id)
}

// WriteQR renders the QR badge PNG under dir and returns the file name.
// An existing badge for the same employee is overwritten.
func WriteQR(dir string, id engine.EmployeeID, url string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create badge dir: %w", err)
	}

	name := Filename(id)
	if err := qrcode.WriteFile(url, qrcode.Medium, 256, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to write qr badge: %w", err)
	}
	return name, nil
}
