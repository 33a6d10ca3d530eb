package main

import (
	"mime"
	"path/filepath"
	"strings"
)

// Category is the semantic tag a listing entry is rendered with.
type Category uint8

const (
	CategoryFile Category = iota
	CategoryFolder
	CategoryImage
	CategoryLambda
	CategoryBack
)

func (c Category) String() string {
	switch c {
	case CategoryFolder:
		return "folder"
	case CategoryImage:
		return "image"
	case CategoryLambda:
		return "lambda"
	case CategoryBack:
		return "back"
	case CategoryFile:
		return "file"
	}
	return "file"
}

// Icon is the glyph shown in front of the entry name.
func (c Category) Icon() string {
	switch c {
	case CategoryFolder:
		return "📁"
	case CategoryImage:
		return "🖼️"
	case CategoryLambda:
		return "λ"
	case CategoryBack:
		return "⬆️"
	case CategoryFile:
		return "📄"
	}
	return "📄"
}

// markup, script, style and data formats
var lambdaSubtypes = map[string]struct{}{
	"javascript": {},
	"css":        {},
	"html":       {},
	"xml":        {},
	"json":       {},
}

func init() {
	// Keep classification and Content-Type stable on hosts without a
	// mime.types file; the builtin table lacks these.
	for ext, typ := range map[string]string{
		".txt":  "text/plain",
		".md":   "text/markdown",
		".csv":  "text/csv",
		".log":  "text/plain",
		".yaml": "text/yaml",
		".yml":  "text/yaml",
		".ico":  "image/x-icon",
		".bmp":  "image/bmp",
		".mp4":  "video/mp4",
		".zip":  "application/zip",
	} {
		if mime.TypeByExtension(ext) == "" {
			_ = mime.AddExtensionType(ext, typ)
		}
	}
}

// mediaTypeOf returns the bare media type ("text/html") for a file name, or
// "" when the extension is unknown.
func mediaTypeOf(name string) string {
	typ := mime.TypeByExtension(filepath.Ext(name))
	if typ == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(typ); err == nil {
		return mt
	}
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = typ[:i]
	}
	return strings.ToLower(strings.TrimSpace(typ))
}

func classifyEntry(name string, isDir bool) Category {
	if isDir {
		return CategoryFolder
	}
	mt := mediaTypeOf(name)
	if mt == "" {
		return CategoryFile
	}
	top, sub, _ := strings.Cut(mt, "/")
	if top == "image" {
		return CategoryImage
	}
	if _, ok := lambdaSubtypes[sub]; ok {
		return CategoryLambda
	}
	return CategoryFile
}
