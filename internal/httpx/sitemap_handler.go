package httpx

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mathstore/storefront-api/internal/catalog"
)

type ProductLister interface {
	List(ctx context.Context) ([]catalog.Product, error)
}

// SitemapHandler renders sitemap.xml from the catalog for search engines.
type SitemapHandler struct {
	Catalog ProductLister
	BaseURL string
	Log     *slog.Logger
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

func (h *SitemapHandler) Register(r chi.Router) {
	r.Get("/sitemap.xml", h.serve)
}

func (h *SitemapHandler) serve(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.List(r.Context())
	if err != nil {
		h.Log.Error("failed to build sitemap", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	today := time.Now().Format("2006-01-02")
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []urlEntry{
			{Loc: h.BaseURL + "/", LastMod: today, ChangeFreq: "daily", Priority: "1.0"},
		},
	}
	for _, p := range products {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        fmt.Sprintf("%s/product/%d", h.BaseURL, p.ID),
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}
