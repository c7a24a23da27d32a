package api

import (
	"net/http"

	"github.com/shuliakovsky/trg-remote/pkg/poller"
)

type StatusSource interface {
	Status() poller.Status
}

// Healthz reports 200 once a poll has succeeded and the latest one did not
// fail, 503 otherwise. The poll status is the body either way.
func Healthz(src StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := src.Status()
		code := http.StatusOK
		if st.LastSuccess.IsZero() || st.LastError != "" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, st)
	}
}
