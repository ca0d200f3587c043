package push

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayload(t *testing.T) {
	raw, err := json.Marshal(BuildPayload(Alert{Title: "Alice", Body: "Heart sent! 💚", Kind: "heart"}))
	require.NoError(t, err)

	var decoded struct {
		APS struct {
			Alert struct {
				Title string `json:"title"`
				Body  string `json:"body"`
			} `json:"alert"`
			Sound    string `json:"sound"`
			ThreadID string `json:"thread-id"`
		} `json:"aps"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "Alice", decoded.APS.Alert.Title)
	assert.Equal(t, "Heart sent! 💚", decoded.APS.Alert.Body)
	assert.Equal(t, "default", decoded.APS.Sound)
	assert.Equal(t, "partner", decoded.APS.ThreadID)
	assert.Equal(t, "heart", decoded.Type)
}

func TestNewAPNSSenderMissingKey(t *testing.T) {
	_, err := NewAPNSSender(Config{KeyFile: t.TempDir() + "/missing.p8", KeyID: "K", TeamID: "T"})
	assert.Error(t, err)
}

func TestNopSender(t *testing.T) {
	var s Sender = NopSender{}
	assert.NoError(t, s.Send(context.Background(), "device", Alert{Title: "x"}))
}
