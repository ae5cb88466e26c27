// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package viewer

import (
	"fmt"

	"github.com/toeirei/fieldviewer/internal/model"
)

// Registry keeps viewers in registration order.
type Registry struct {
	viewers []Viewer
}

// NewRegistry returns a registry holding the builtins followed by extra.
func NewRegistry(extra ...Viewer) (*Registry, error) {
	r := &Registry{}
	for _, v := range Builtins() {
		if err := r.Add(v); err != nil {
			return nil, err
		}
	}
	for _, v := range extra {
		if err := r.Add(v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers v after validating it. Names must be unique.
func (r *Registry) Add(v Viewer) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if _, ok := r.Get(v.Name); ok {
		return fmt.Errorf("viewer %s already registered", v.Name)
	}
	if v.Title == "" {
		v.Title = v.Name
	}
	r.viewers = append(r.viewers, v)
	return nil
}

// Get returns the viewer called name.
func (r *Registry) Get(name string) (Viewer, bool) {
	for _, v := range r.viewers {
		if v.Name == name {
			return v, true
		}
	}
	return Viewer{}, false
}

// ForKind lists the viewers supporting kind, in registration order.
func (r *Registry) ForKind(kind model.Kind) []Viewer {
	var out []Viewer
	for _, v := range r.viewers {
		if v.Supports(kind) {
			out = append(out, v)
		}
	}
	return out
}

// All returns every registered viewer.
func (r *Registry) All() []Viewer {
	out := make([]Viewer, len(r.viewers))
	copy(out, r.viewers)
	return out
}

// Link is a rendered viewer address.
type Link struct {
	Viewer string `json:"viewer"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Embed  string `json:"embed"`
}

// Links is everything the page needs to show one model.
type Links struct {
	Raw      string `json:"raw"`
	Download string `json:"download"`
	Share    string `json:"share,omitempty"`
	Embed    string `json:"embed,omitempty"`
	Selected string `json:"selected,omitempty"`
	Viewers  []Link `json:"viewers"`
}

// Resolve renders the links for a model of kind at rawURL. preferred picks
// the viewer used for Share/Embed when it supports the kind; otherwise the
// first matching viewer is used. Kinds without a viewer (u3d) only get the
// download link.
func (r *Registry) Resolve(kind model.Kind, rawURL, name, preferred string) Links {
	links := Links{Raw: rawURL, Download: rawURL}
	candidates := r.ForKind(kind)
	for _, v := range candidates {
		links.Viewers = append(links.Viewers, Link{
			Viewer: v.Name,
			Title:  v.Title,
			URL:    v.LinkURL(rawURL, name),
			Embed:  v.EmbedURL(rawURL, name),
		})
	}
	if len(links.Viewers) == 0 {
		return links
	}
	chosen := links.Viewers[0]
	for _, l := range links.Viewers {
		if l.Viewer == preferred {
			chosen = l
			break
		}
	}
	links.Selected = chosen.Viewer
	links.Share = chosen.URL
	links.Embed = chosen.Embed
	return links
}
