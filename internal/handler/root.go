package handler

import "net/http"

// HandleRoot answers GET / with a plain greeting, used as a liveness check.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello World"))
}
