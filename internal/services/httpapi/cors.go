package httpapi

import (
	"net/http"
	"strings"
)

const (
	allowAllOrigins = "*"
	headerOrigin    = "Origin"
)

// newCORSMiddleware permits browser calls from allowedOrigins with credentials and
// any method or header. With "*" the request origin is echoed, since browsers reject
// a wildcard origin on credentialed responses.
func newCORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmedOrigin := strings.TrimSpace(origin)
		if trimmedOrigin == allowAllOrigins {
			allowAll = true
			continue
		}
		originSet[strings.TrimSuffix(trimmedOrigin, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			origin := strings.TrimSpace(request.Header.Get(headerOrigin))
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}
			_, listed := originSet[origin]
			if !allowAll && !listed {
				next.ServeHTTP(writer, request)
				return
			}

			headers := writer.Header()
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Set("Access-Control-Allow-Credentials", "true")
			headers.Add("Vary", headerOrigin)

			isPreflight := request.Method == http.MethodOptions && request.Header.Get("Access-Control-Request-Method") != ""
			if !isPreflight {
				next.ServeHTTP(writer, request)
				return
			}
			headers.Set("Access-Control-Allow-Methods", request.Header.Get("Access-Control-Request-Method"))
			if requestedHeaders := request.Header.Get("Access-Control-Request-Headers"); requestedHeaders != "" {
				headers.Set("Access-Control-Allow-Headers", requestedHeaders)
			}
			headers.Set("Access-Control-Max-Age", "600")
			writer.WriteHeader(http.StatusNoContent)
		})
	}
}
