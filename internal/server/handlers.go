// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/toeirei/fieldviewer/internal/catalog"
	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/logging"
	"github.com/toeirei/fieldviewer/internal/mesh"
	"github.com/toeirei/fieldviewer/internal/model"
	"github.com/toeirei/fieldviewer/internal/preview"
	"github.com/toeirei/fieldviewer/internal/viewer"
)

// modelView is everything shown for one selected entry.
type modelView struct {
	Entry   catalog.Entry      `json:"entry"`
	Links   viewer.Links       `json:"links"`
	Summary *model.IFCSummary  `json:"summary,omitempty"`
	Mesh    *model.MeshSummary `json:"mesh,omitempty"`
	Preview string             `json:"preview,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type indexPage struct {
	Lang      string
	User      string
	Entries   []catalog.Entry
	Selected  string
	ListError string
	View      *modelView
}

type loginPage struct {
	Lang  string
	Next  string
	User  string
	Error string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logging.Errorf("server: failed to encode JSON response: %v", err)
		http.Error(w, i18n.T("web.internal_error"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Errorf("server: render %s: %v", name, err)
		http.Error(w, i18n.T("web.internal_error"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// entries merges the local files with the stored projects. A failing
// source is reported while the other one is still listed.
func (s *Server) entries(ctx context.Context) ([]catalog.Entry, error) {
	var errs []error
	files, err := catalog.List(s.opts.ModelsDir)
	if err != nil {
		logging.Warnf("server: %v", err)
		errs = append(errs, err)
	}
	var projects []model.Project
	if s.opts.Store != nil {
		projects, err = s.opts.Store.ListProjects(ctx)
		if err != nil {
			logging.Warnf("server: list projects: %v", err)
			errs = append(errs, err)
		}
	}
	return catalog.Merge(files, projects), errors.Join(errs...)
}

func (s *Server) isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return s.opts.TrustProxy && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (s *Server) filesBase(r *http.Request) string {
	if s.opts.FilesBaseURL != "" {
		return s.opts.FilesBaseURL
	}
	base := s.opts.PublicURL
	if base == "" {
		scheme := "http"
		if s.isHTTPS(r) {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimRight(base, "/") + "/files"
}

func (s *Server) rawURL(r *http.Request, e catalog.Entry) string {
	if e.Source == catalog.SourceProject && e.Project != nil {
		return e.Project.URL
	}
	return catalog.RawURL(s.filesBase(r), e.Label)
}

func previewPath(e catalog.Entry) string {
	return "/preview/" + url.PathEscape(e.Key()) + ".png"
}

// inspect resolves links and metrics for e. Failures end up in Error with
// an empty metric set.
func (s *Server) inspect(r *http.Request, e catalog.Entry, preferred string) *modelView {
	if preferred == "" {
		preferred = s.opts.DefaultViewer
	}
	report := s.opts.Analysis.Inspect(r.Context(), e, userFrom(r.Context()))
	v := &modelView{
		Entry:   e,
		Links:   s.opts.Registry.Resolve(e.Kind, s.rawURL(r, e), e.Label, preferred),
		Summary: report.Summary,
		Mesh:    report.Mesh,
	}
	switch {
	case report.Err != nil:
		v.Error = report.Err.Error()
	case report.Mesh != nil, report.Summary != nil && len(report.Summary.Counts) > 0:
		v.Preview = previewPath(e)
	}
	return v
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries(r.Context())
	page := indexPage{
		Lang:     i18n.GetLang(),
		User:     userFrom(r.Context()),
		Entries:  entries,
		Selected: r.URL.Query().Get("model"),
	}
	if err != nil {
		page.ListError = i18n.T("web.list_error", err)
	}
	status := http.StatusOK
	if page.Selected != "" {
		e, ok := catalog.Find(entries, page.Selected)
		if !ok {
			status = http.StatusNotFound
			page.View = &modelView{
				Entry: catalog.Entry{Label: page.Selected},
				Error: i18n.T("web.not_found", page.Selected),
			}
		} else {
			page.View = s.inspect(r, e, r.URL.Query().Get("viewer"))
		}
	}
	s.render(w, status, "index.html", page)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	corsHandler(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	mf, err := catalog.Open(s.opts.ModelsDir, r.PathValue("name"))
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, catalog.ErrInvalidName) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	f, err := os.Open(mf.Path)
	if err != nil {
		logging.Errorf("server: open %s: %v", mf.Path, err)
		http.Error(w, i18n.T("web.internal_error"), http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()
	w.Header().Set("Content-Type", contentType(mf.Kind))
	http.ServeContent(w, r, mf.Name, mf.ModTime, f)
}

func contentType(k model.Kind) string {
	switch k {
	case model.KindPDF:
		return "application/pdf"
	case model.KindIFC:
		return "application/x-step"
	case model.KindOBJ:
		return "model/obj"
	case model.KindU3D:
		return "model/u3d"
	}
	return "application/octet-stream"
}

// lookup finds the entry addressed by a path key.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, key string) (catalog.Entry, bool) {
	entries, _ := s.entries(r.Context())
	e, ok := catalog.Find(entries, key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": i18n.T("web.not_found", key)})
	}
	return e, ok
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSuffix(r.PathValue("key"), ".png")
	e, ok := s.lookup(w, r, key)
	if !ok {
		return
	}
	ctx := r.Context()
	var buf bytes.Buffer
	switch e.Kind {
	case model.KindIFC:
		summary, err := s.opts.Analysis.IFC(ctx, e, userFrom(ctx))
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		err = preview.CountsChart(&buf, summary)
		if errors.Is(err, preview.ErrNoData) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			logging.Errorf("server: chart for %s: %v", e.Key(), err)
			http.Error(w, i18n.T("web.internal_error"), http.StatusInternalServerError)
			return
		}
	case model.KindOBJ:
		plane, err := mesh.ParsePlane(r.URL.Query().Get("plane"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		m, err := s.opts.Analysis.OBJ(ctx, e)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		if err := preview.ProjectionChart(&buf, m, plane); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": i18n.T("web.no_preview", e.Kind)})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

type fileItem struct {
	Key    string         `json:"key"`
	Label  string         `json:"label"`
	Kind   model.Kind     `json:"kind"`
	Source catalog.Source `json:"source"`
	Size   int64          `json:"size,omitempty"`
	Links  viewer.Links   `json:"links"`
}

func (s *Server) handleAPIFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries(r.Context())
	if err != nil && len(entries) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	items := make([]fileItem, 0, len(entries))
	for _, e := range entries {
		item := fileItem{
			Key:    e.Key(),
			Label:  e.Label,
			Kind:   e.Kind,
			Source: e.Source,
			Links:  s.opts.Registry.Resolve(e.Kind, s.rawURL(r, e), e.Label, s.opts.DefaultViewer),
		}
		if e.File != nil {
			item.Size = e.File.Size
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": items})
}

func (s *Server) handleAPIModel(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r, r.PathValue("key"))
	if !ok {
		return
	}
	v := s.inspect(r, e, r.URL.Query().Get("viewer"))
	status := http.StatusOK
	if v.Error != "" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, v)
}
