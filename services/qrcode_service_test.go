// file: services/qrcode_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareURL(t *testing.T) {
	t.Setenv("APPLICATION_URL", "")
	assert.Equal(t, "http://localhost:3005/#/excursions?selectedId=e1", ShareURL("e1"))

	t.Setenv("APPLICATION_URL", "https://excursiones.hispanidad.com")
	assert.Equal(t, "https://excursiones.hispanidad.com/#/excursions?selectedId=e1", ShareURL("e1"))
}

func TestGenerateShareQRCode(t *testing.T) {
	png, err := GenerateShareQRCode("e1", 256)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
