// internal/models/categories.go
package models

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

type FeaturedLink struct {
	Name string `yaml:"name" json:"name"`
	Href string `yaml:"href" json:"href"`
}

type ProductCategory struct {
	Label    string         `yaml:"label" json:"label"`
	Value    string         `yaml:"value" json:"value"`
	Featured []FeaturedLink `yaml:"featured" json:"featured"`
}

type categoryFile struct {
	Categories []ProductCategory `yaml:"categories"`
}

var (
	categoriesOnce sync.Once
	categories     []ProductCategory
	categoriesErr  error
)

// ProductCategories returns the embedded category catalogue.
func ProductCategories() ([]ProductCategory, error) {
	categoriesOnce.Do(func() {
		var f categoryFile
		if err := yaml.Unmarshal(categoriesYAML, &f); err != nil {
			categoriesErr = fmt.Errorf("failed to parse product categories: %w", err)
			return
		}
		categories = f.Categories
	})
	return categories, categoriesErr
}

func IsProductCategory(value string) bool {
	cats, err := ProductCategories()
	if err != nil {
		return false
	}
	for _, c := range cats {
		if c.Value == value {
			return true
		}
	}
	return false
}
