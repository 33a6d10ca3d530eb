package main

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// DirEntryView is one row of a directory listing.
type DirEntryView struct {
	Name         string
	Category     Category
	LastModified string
	Size         string
	// RelativePath is slash separated and relative to the serve root, "" for the root.
	RelativePath string
	DownloadLink string

	Hidden      bool
	SizeExact   string
	ModifiedAgo string
}

// Href is the absolute URL path of the entry.
func (e DirEntryView) Href() string {
	return hrefFor(e.RelativePath)
}

type listingPage struct {
	Path    string
	Entries []DirEntryView
	// LiveScript is empty unless live reload is on.
	LiveScript template.HTML
}

type dirChild struct {
	name  string
	isDir bool
	info  fs.FileInfo
}

// Names that turn a directory request into a file response.
const (
	indexHTML = "index.html"
	indexHTM  = "index.htm"
)

func hrefFor(rel string) string {
	if rel == "" {
		return "/"
	}
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "/" + strings.Join(parts, "/")
}

// readChildren enumerates dir one level deep, directories first and then by
// byte-wise name order.
func readChildren(dir string) ([]dirChild, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	children := make([]dirChild, 0, len(entries))
	for _, entry := range entries {
		c := dirChild{name: entry.Name(), isDir: entry.IsDir()}
		if info, err := entry.Info(); err == nil {
			c.info = info
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			// Classify links by their target.
			if st, err := os.Stat(filepath.Join(dir, c.name)); err == nil {
				c.info = st
				c.isDir = st.IsDir()
			}
		}
		children = append(children, c)
	}

	sort.Slice(children, func(i, j int) bool {
		if children[i].isDir != children[j].isDir {
			return children[i].isDir
		}
		return children[i].name < children[j].name
	})
	return children, nil
}

// indexFile returns the index document among children, if any.
func indexFile(children []dirChild) string {
	found := ""
	for _, c := range children {
		if c.isDir {
			continue
		}
		switch c.name {
		case indexHTML:
			return c.name
		case indexHTM:
			found = c.name
		}
	}
	return found
}

// buildListing turns sorted children of relDir into view rows. A non-root
// directory gets a leading "back" row pointing at its parent.
func buildListing(relDir string, children []dirChild, loc *time.Location) []DirEntryView {
	views := make([]DirEntryView, 0, len(children)+1)
	if relDir != "" {
		parent := path.Dir(relDir)
		if parent == "." {
			parent = ""
		}
		views = append(views, DirEntryView{
			Name:         "..",
			Category:     CategoryBack,
			RelativePath: parent,
		})
	}

	for _, c := range children {
		rel := c.name
		if relDir != "" {
			rel = relDir + "/" + c.name
		}
		v := DirEntryView{
			Name:         c.name,
			Category:     classifyEntry(c.name, c.isDir),
			RelativePath: rel,
			Hidden:       isHiddenName(c.name),
		}
		if !c.isDir {
			v.DownloadLink = hrefFor(rel) + "?download"
		}
		if c.info != nil {
			v.LastModified = formatTime(c.info.ModTime(), loc)
			if !c.info.ModTime().IsZero() {
				v.ModifiedAgo = humanize.Time(c.info.ModTime())
			}
			if !c.isDir {
				v.Size = formatSize(c.info.Size())
				v.SizeExact = humanize.Comma(c.info.Size()) + " bytes"
			}
		}
		views = append(views, v)
	}
	return views
}

func (s *ShareServer) serveDirectory(w http.ResponseWriter, r *http.Request, dir string) error {
	relDir, ok := s.relPath(dir)
	if !ok {
		return errOutsideRoot
	}

	children, err := readChildren(dir)
	if err != nil {
		return err
	}
	if index := indexFile(children); index != "" {
		return s.serveFile(w, r, filepath.Join(dir, index))
	}

	entries := buildListing(relDir, children, s.location)
	for i := range entries {
		if entries[i].Category != CategoryBack && !entries[i].Hidden {
			entries[i].Hidden = isHiddenPath(dir, entries[i].Name)
		}
	}
	s.metrics.listed(len(children))

	page := listingPage{
		Path:    "/" + relDir,
		Entries: entries,
	}
	if s.events != nil {
		page.LiveScript = template.HTML(liveReloadScript(relDir, false))
	}
	var buf bytes.Buffer
	if err := s.pages.listing.Execute(&buf, page); err != nil {
		loggerFrom(r.Context(), s.logger).Error("render listing", zap.String("dir", page.Path), zap.Error(err))
		http.Error(w, "500 failed to render directory listing", http.StatusInternalServerError)
		s.metrics.response(responseError)
		return nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	s.metrics.response(responseDirectory)
	return nil
}
