package usecases

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signatureHeader = "X-Signature"

// SignWebhookPayload computes the signature header value for a payload:
// "sha256=" followed by the hex HMAC-SHA256 of the body under the
// subscription secret.
func SignWebhookPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a received signature header against the
// payload in constant time.
func VerifyWebhookSignature(secret string, payload []byte, signature string) bool {
	if !strings.HasPrefix(signature, "sha256=") {
		return false
	}
	expected := SignWebhookPayload(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
