package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

// requireAPIKey authenticates a request by computing the HMAC-SHA256 of the
// api_key header value, looking it up, and comparing the stored hash in
// constant time to guard against timing side-channels even when the lookup
// already succeeded.
func (h *Handler) requireAPIKey(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			respondError(w, r, http.StatusUnauthorized, "missing api key")
			return
		}

		mac := hmac.New(sha256.New, h.cfg.APIKeyPepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := h.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, "invalid api key")
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			respondError(w, r, http.StatusUnauthorized, "invalid api key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// validCallbackToken compares the webhook callback token in constant time.
// An unset configured token rejects everything; the webhook must never run
// open.
func (h *Handler) validCallbackToken(r *http.Request) bool {
	if h.cfg.CallbackToken == "" {
		return false
	}
	got := r.Header.Get("x-callback-token")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.CallbackToken)) == 1
}
