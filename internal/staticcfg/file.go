package staticcfg

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource serves a StaticConfig from a YAML document. Entries under
// `users` replace the top-level sections for that user.
type FileSource struct {
	base  fileDocument
	users map[string]fileDocument
}

type fileDocument struct {
	Brand    *BrandGuide      `yaml:"brand"`
	Workflow *Workflow        `yaml:"workflow"`
	Models   Models           `yaml:"models"`
	Recent   []ArticleSummary `yaml:"recent_articles"`
}

type fileRoot struct {
	fileDocument `yaml:",inline"`
	Users        map[string]fileDocument `yaml:"users"`
}

// LoadFile reads and parses path.
func LoadFile(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static config: %w", err)
	}
	return ParseFile(data)
}

// ParseFile parses a YAML document.
func ParseFile(data []byte) (*FileSource, error) {
	var root fileRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse static config: %w", err)
	}
	return &FileSource{base: root.fileDocument, users: root.Users}, nil
}

func (f *FileSource) doc(userID string) fileDocument {
	doc := f.base
	user, ok := f.users[userID]
	if !ok {
		return doc
	}
	if user.Brand != nil {
		doc.Brand = user.Brand
	}
	if user.Workflow != nil {
		doc.Workflow = user.Workflow
	}
	if user.Models != nil {
		doc.Models = user.Models
	}
	if user.Recent != nil {
		doc.Recent = user.Recent
	}
	return doc
}

func (f *FileSource) BrandGuide(_ context.Context, userID string) (BrandGuide, error) {
	if b := f.doc(userID).Brand; b != nil {
		return *b, nil
	}
	return BrandGuide{}, nil
}

func (f *FileSource) Workflow(_ context.Context, userID string) (Workflow, error) {
	if w := f.doc(userID).Workflow; w != nil {
		return *w, nil
	}
	return DefaultWorkflow(), nil
}

func (f *FileSource) Models(_ context.Context, userID string) (Models, error) {
	out := Models{}
	for k, v := range f.doc(userID).Models {
		out[k] = v
	}
	return out, nil
}

func (f *FileSource) RecentArticles(_ context.Context, userID string, limit int) ([]ArticleSummary, error) {
	recent := f.doc(userID).Recent
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return append([]ArticleSummary(nil), recent...), nil
}

var _ Source = (*FileSource)(nil)
