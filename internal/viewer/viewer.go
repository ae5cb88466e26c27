// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package viewer turns a model's raw URL into links and embed addresses for
// external viewer services. Each service is described by a URL template;
// the raw URL is substituted verbatim, the way those services expect it.
package viewer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/toeirei/fieldviewer/internal/model"
)

// Placeholders understood by Link and Embed templates.
const (
	PlaceholderURL  = "{url}"
	PlaceholderName = "{name}"
)

// Viewer describes an external viewer service.
type Viewer struct {
	Name  string       `mapstructure:"name" yaml:"name" json:"name"`
	Title string       `mapstructure:"title" yaml:"title" json:"title"`
	Kinds []model.Kind `mapstructure:"kinds" yaml:"kinds" json:"kinds"`
	Link  string       `mapstructure:"link" yaml:"link" json:"link"`
	Embed string       `mapstructure:"embed" yaml:"embed,omitempty" json:"embed,omitempty"`
}

// Supports reports whether the viewer accepts models of kind k.
func (v Viewer) Supports(k model.Kind) bool {
	for _, vk := range v.Kinds {
		if vk == k {
			return true
		}
	}
	return false
}

// LinkURL renders the share link for a model.
func (v Viewer) LinkURL(rawURL, name string) string {
	return expand(v.Link, rawURL, name)
}

// EmbedURL renders the iframe address; viewers without an embed template
// reuse the link.
func (v Viewer) EmbedURL(rawURL, name string) string {
	if v.Embed == "" {
		return v.LinkURL(rawURL, name)
	}
	return expand(v.Embed, rawURL, name)
}

func expand(tmpl, rawURL, name string) string {
	r := strings.NewReplacer(PlaceholderURL, rawURL, PlaceholderName, name)
	return r.Replace(tmpl)
}

// Validate checks that the viewer can produce links.
func (v Viewer) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return errors.New("viewer name cannot be empty")
	}
	if !strings.Contains(v.Link, PlaceholderURL) {
		return fmt.Errorf("viewer %s: link template must contain %s", v.Name, PlaceholderURL)
	}
	if v.Embed != "" && !strings.Contains(v.Embed, PlaceholderURL) {
		return fmt.Errorf("viewer %s: embed template must contain %s", v.Name, PlaceholderURL)
	}
	if len(v.Kinds) == 0 {
		return fmt.Errorf("viewer %s: at least one kind is required", v.Name)
	}
	for _, k := range v.Kinds {
		if !k.Supported() {
			return fmt.Errorf("viewer %s: unsupported kind %q", v.Name, k)
		}
	}
	return nil
}

// Builtins returns the viewer services used by the original pages.
func Builtins() []Viewer {
	return []Viewer{
		{
			Name:  "3dviewer",
			Title: "Online 3D Viewer",
			Kinds: []model.Kind{model.KindIFC, model.KindOBJ},
			Link:  "https://3dviewer.net/#model={url}",
			Embed: "https://3dviewer.net/embed.html#model={url}",
		},
		{
			Name:  "gdocs",
			Title: "Google Docs Viewer",
			Kinds: []model.Kind{model.KindPDF},
			Link:  "https://docs.google.com/viewer?url={url}&embedded=true",
		},
		{
			Name:  "pdfjs",
			Title: "PDF.js",
			Kinds: []model.Kind{model.KindPDF},
			Link:  "https://mozilla.github.io/pdf.js/web/viewer.html?file={url}",
		},
	}
}
