package main

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	chunkSize       = 1024
	downloadQuery   = "download"
	defaultMimeType = "application/octet-stream"
)

// readChunks yields successive reads of r in chunkSize-byte slices until EOF.
// The slice is reused between iterations. The sequence reads r directly, so
// ranging over it a second time continues where the first pass stopped.
func readChunks(r io.Reader, size int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		buf := make([]byte, size)
		for {
			n, err := r.Read(buf)
			if n > 0 && !yield(buf[:n], nil) {
				return
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

func contentTypeFor(name string) string {
	mt := mediaTypeOf(name)
	if mt == "" {
		return defaultMimeType
	}
	if strings.HasPrefix(mt, "text/") {
		return mt + "; charset=utf-8"
	}
	return mt
}

func contentDisposition(attachment bool, name string) string {
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}

	ascii := true
	fallback := strings.Map(func(r rune) rune {
		if r >= utf8.RuneSelf || r < 0x20 {
			ascii = false
			return '_'
		}
		return r
	}, name)
	fallback = strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(fallback)

	v := fmt.Sprintf(`%s; filename="%s"`, disposition, fallback)
	if !ascii {
		v += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return v
}

// serveFile streams filePath. A missing file is answered with a redirect to
// the first sibling whose name starts with the requested one, ignoring case.
func (s *ShareServer) serveFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	if !within(s.root, filePath) {
		return errOutsideRoot
	}

	f, err := os.Open(filePath)
	if err != nil {
		if classifyError(err) == KindNotFound {
			if target, ok := s.prefixFallback(filePath); ok {
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				s.metrics.response(responseRedirect)
				return nil
			}
		}
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.IsDir() {
		return newServeError(KindInvalidInput, errors.New("is a directory"))
	}

	name := filepath.Base(filePath)
	attachment := r.URL.RawQuery == downloadQuery

	// With live reload on, HTML pages viewed in the browser get the reload
	// script appended after the file body.
	var trailer []byte
	if s.events != nil && !attachment && mediaTypeOf(name) == "text/html" {
		if dir, ok := s.relPath(filepath.Dir(filePath)); ok {
			trailer = []byte(liveReloadScript(dir, true))
		}
	}

	h := w.Header()
	h.Set("Content-Type", contentTypeFor(name))
	if st.Mode().IsRegular() {
		h.Set("Content-Length", strconv.FormatInt(st.Size()+int64(len(trailer)), 10))
	}
	h.Set("Content-Disposition", contentDisposition(attachment, name))
	w.WriteHeader(http.StatusOK)
	s.metrics.response(responseFile)

	if r.Method == http.MethodHead {
		return nil
	}

	logger := loggerFrom(r.Context(), s.logger)
	var sent int64
	complete := true
	for chunk, err := range readChunks(f, chunkSize) {
		if err != nil {
			// Headers are gone already; all that is left is to cut the body short.
			logger.Warn("read failed mid-stream", zap.String("file", name), zap.Error(err))
			complete = false
			break
		}
		if r.Context().Err() != nil {
			complete = false
			break
		}
		n, werr := w.Write(chunk)
		sent += int64(n)
		if werr != nil {
			logger.Debug("client went away", zap.String("file", name), zap.Error(werr))
			complete = false
			break
		}
	}
	if complete && len(trailer) > 0 {
		n, _ := w.Write(trailer)
		sent += int64(n)
	}
	s.metrics.served(sent)
	return nil
}

func (s *ShareServer) prefixFallback(filePath string) (string, bool) {
	parent := filepath.Dir(filePath)
	if !within(s.root, parent) {
		return "", false
	}
	want := strings.ToLower(filepath.Base(filePath))
	if want == "" {
		return "", false
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !strings.HasPrefix(strings.ToLower(entry.Name()), want) {
			continue
		}
		rel, ok := s.relPath(filepath.Join(parent, entry.Name()))
		if !ok {
			return "", false
		}
		return hrefFor(rel), true
	}
	return "", false
}
