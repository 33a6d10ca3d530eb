package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
)

type errorPage struct {
	Status     int
	StatusText string
	Message    string
}

// handlePath is the only content route. Directories get a listing; anything
// else, including paths that do not exist, goes to the file responder so the
// prefix fallback can kick in.
func (s *ShareServer) handlePath(w http.ResponseWriter, r *http.Request) {
	target, ok := safeJoin(s.root, r.URL.Path)
	if !ok {
		s.writeError(w, r, errOutsideRoot)
		return
	}

	var err error
	if st, statErr := os.Stat(target); statErr == nil && st.IsDir() {
		err = s.serveDirectory(w, r, target)
	} else {
		err = s.serveFile(w, r, target)
	}
	if err != nil {
		s.writeError(w, r, err)
	}
}

func (s *ShareServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := classifyError(err)
	status := kind.Status()
	s.metrics.response(responseError)

	logger := loggerFrom(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("kind", kind.String()), zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("kind", kind.String()), zap.Int("status", status), zap.Error(err))
	}

	page := errorPage{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    kind.String(),
	}
	var buf bytes.Buffer
	if renderErr := s.pages.errorPage.Execute(&buf, page); renderErr != nil {
		http.Error(w, fmt.Sprintf("%d %s", status, kind), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
