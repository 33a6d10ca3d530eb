package main

import (
	"embed"
	"html/template"
)

//go:embed web/templates/*.html
var templateAssets embed.FS

type pageTemplates struct {
	listing   *template.Template
	errorPage *template.Template
}

func parsePageTemplates() (*pageTemplates, error) {
	listing, err := template.ParseFS(templateAssets, "web/templates/listing.html")
	if err != nil {
		return nil, err
	}
	errorPage, err := template.ParseFS(templateAssets, "web/templates/error.html")
	if err != nil {
		return nil, err
	}
	return &pageTemplates{listing: listing, errorPage: errorPage}, nil
}
