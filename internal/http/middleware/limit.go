package middleware

import "net/http"

// LimitConcurrency bounds the number of requests handled at once to workers,
// the in-process rendition of a fixed worker pool. Excess requests block
// until a slot frees or their context is cancelled.
func LimitConcurrency(workers int, next http.Handler) http.Handler {
	if workers < 1 {
		workers = 1
	}
	slots := make(chan struct{}, workers)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			http.Error(w, "server busy", http.StatusServiceUnavailable)
		}
	})
}
