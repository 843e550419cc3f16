package twilio

import (
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 - SHA-1 is mandated by the Twilio signature scheme
	"encoding/base64"
	"sort"
)

// ComputeSignature builds the expected request signature: the full request
// URL with each form field name and value appended in lexicographic field
// order, HMAC-SHA1 signed with the auth token and base64 encoded.
func ComputeSignature(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := url
	for _, k := range keys {
		payload += k + params[k]
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateRequest reports whether the header-supplied signature matches the
// request. It never fails with an error: a missing header arrives here as an
// empty string and simply does not match. Comparison is constant time.
func ValidateRequest(authToken, signature, url string, params map[string]string) bool {
	if authToken == "" {
		return false
	}

	expected := ComputeSignature(authToken, url, params)
	return hmac.Equal([]byte(expected), []byte(signature))
}
