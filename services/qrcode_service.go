// services/qrcode_service.go
package services

import (
	"os"

	"github.com/skip2/go-qrcode"
)

// ShareURL builds the deep link another tutor scans to open a shared
// excursion.
func ShareURL(excursionID string) string {
	applicationURL := os.Getenv("APPLICATION_URL")
	if applicationURL == "" {
		applicationURL = "http://localhost:3005" // Default for local testing
	}
	return applicationURL + "/#/excursions?selectedId=" + excursionID
}

// GenerateShareQRCode creates a QR code PNG for an excursion share link.
func GenerateShareQRCode(excursionID string, size int) ([]byte, error) {
	png, err := qrcode.Encode(ShareURL(excursionID), qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	return png, nil
}
