// Package controllers file: controllers/page_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"school-trips/logger"
	"school-trips/services"
)

// Health reports process liveness for the load balancer.
func Health(c *gin.Context) {
	logger.Info.Println("Health: Health check requested")
	c.String(http.StatusOK, "OK")
}

// GetQRCode renders a PNG QR code pointing at the share link for an
// excursion. The excursion id comes from the `id` query parameter.
func GetQRCode(c *gin.Context) {
	excursionID := c.Query("id")
	if excursionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Falta el parámetro id"})
		return
	}

	logger.Info.Printf("GetQRCode: generating QR code for excursion %s", excursionID)

	qrBytes, err := services.GenerateShareQRCode(excursionID, 300)
	if err != nil {
		logger.Error.Printf("GetQRCode: error generating QR code: %v", err)
		c.String(http.StatusInternalServerError, "QR generation failed")
		return
	}

	c.Header("Content-Type", "image/png")
	c.Header("Content-Disposition", "inline; filename=\"qrcode.png\"")
	if _, err := c.Writer.Write(qrBytes); err != nil {
		logger.Error.Printf("GetQRCode: error writing QR code bytes: %v", err)
	}
}
