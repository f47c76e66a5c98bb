package middleware

import (
	"net/http"
	"strings"
)

// Vary adds Accept to the Vary header, since JSON endpoints negotiate JSON or CBOR.
// Origin is added separately by the CORS handler.
func Vary() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addVary(w.Header(), "Accept")
			next.ServeHTTP(w, r)
		})
	}
}

func addVary(h http.Header, value string) {
	for _, existing := range h.Values("Vary") {
		for part := range strings.SplitSeq(existing, ",") {
			if strings.EqualFold(strings.TrimSpace(part), value) {
				return
			}
		}
	}
	h.Add("Vary", value)
}
