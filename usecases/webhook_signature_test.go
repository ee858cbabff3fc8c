package usecases

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignWebhookPayload(t *testing.T) {
	payload := []byte(`{"id":"evt-1","type":"entities.create.validated"}`)

	signature := SignWebhookPayload("secret", payload)

	assert.True(t, strings.HasPrefix(signature, "sha256="))
	// deterministic for the same secret and payload
	assert.Equal(t, signature, SignWebhookPayload("secret", payload))
	assert.NotEqual(t, signature, SignWebhookPayload("other-secret", payload))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt-1"}`)
	signature := SignWebhookPayload("secret", payload)

	assert.True(t, VerifyWebhookSignature("secret", payload, signature))
	assert.False(t, VerifyWebhookSignature("wrong-secret", payload, signature))
	assert.False(t, VerifyWebhookSignature("secret", []byte(`{"id":"evt-2"}`), signature))
	assert.False(t, VerifyWebhookSignature("secret", payload, strings.TrimPrefix(signature, "sha256=")))
	assert.False(t, VerifyWebhookSignature("secret", payload, "sha256=deadbeef"))
}
