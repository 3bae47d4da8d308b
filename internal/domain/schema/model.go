// Package schema models the per-project configuration document
// (schema_config.json): workflow lists, custom views and custom column
// definitions. The JSON layout is a compatibility contract with existing
// project directories and must not change.
package schema

import (
	"fmt"
	"strings"
)

// Column definition kinds.
const (
	ColumnText         = "text"
	ColumnSingleSelect = "single_select"
	ColumnAIScore      = "ai_score"
)

// AI generation model tiers accepted for ai_score columns.
var ValidModels = []string{"instant", "batch", "complex", "long_context"}

// List identifies one system workflow list.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CustomView is an explicit-row-id-set view, independent of the row's
// workflow list. RowIDs may reference uids that no longer exist in the
// master table; those are ignored at query time.
type CustomView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Icon           string   `json:"icon"`
	VisibleColumns []string `json:"visibleColumns"`
	RowIDs         []string `json:"rowIds"`
	IsCustom       bool     `json:"isCustom"`
}

// GenerationConfig holds the generation settings of an ai_score column. The
// store only persists it; running generation is a collaborator's job.
type GenerationConfig struct {
	UserPrompt    string `json:"user_prompt"`
	ModelSelected string `json:"model_selected"`
	SmartContext  bool   `json:"smart_context"`
}

// ColumnDefinition describes one custom column.
type ColumnDefinition struct {
	Type    string            `json:"type"`
	Label   string            `json:"label,omitempty"`
	Options []string          `json:"options,omitempty"`
	Field   string            `json:"field,omitempty"`
	Config  *GenerationConfig `json:"config,omitempty"`
}

// Config is the configuration document stored alongside a project's master
// table.
type Config struct {
	ProjectName   string                      `json:"project_name,omitempty"`
	Lists         []List                      `json:"lists"`
	CustomViews   []CustomView                `json:"custom_views"`
	CustomColumns map[string]ColumnDefinition `json:"custom_columns_definitions"`
}

// Default returns the configuration a freshly created project starts with.
func Default(projectName string) *Config {
	return &Config{
		ProjectName: projectName,
		Lists: []List{
			{ID: "inbox", Name: "Inbox"},
			{ID: "shortlist", Name: "Shortlist"},
			{ID: "discarded", Name: "Discarded"},
		},
		CustomViews:   []CustomView{},
		CustomColumns: map[string]ColumnDefinition{},
	}
}

// Normalize fills keys older documents may lack so every loaded config has
// the full shape.
func (c *Config) Normalize() *Config {
	if c.CustomViews == nil {
		c.CustomViews = []CustomView{}
	}
	if c.CustomColumns == nil {
		c.CustomColumns = map[string]ColumnDefinition{}
	}
	return c
}

// Validate checks the document invariants: required top-level keys, valid
// column definitions, and custom view ids distinct from system list ids.
func (c *Config) Validate() error {
	if c.Lists == nil {
		return fmt.Errorf("%w: missing lists", ErrInvalid)
	}
	if c.CustomColumns == nil {
		return fmt.Errorf("%w: missing custom_columns_definitions", ErrInvalid)
	}
	for _, l := range c.Lists {
		if strings.TrimSpace(l.ID) == "" {
			return fmt.Errorf("%w: list with empty id", ErrInvalid)
		}
	}
	for _, v := range c.CustomViews {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("%w: custom view with empty id", ErrInvalid)
		}
		if c.IsSystemList(v.ID) {
			return fmt.Errorf("%w: custom view id %q collides with a system list", ErrInvalid, v.ID)
		}
	}
	for name, def := range c.CustomColumns {
		if err := validateColumn(name, def); err != nil {
			return err
		}
	}
	return nil
}

func validateColumn(name string, def ColumnDefinition) error {
	switch def.Type {
	case ColumnText:
		return nil
	case ColumnSingleSelect:
		for _, opt := range def.Options {
			if strings.TrimSpace(opt) != "" {
				return nil
			}
		}
		return fmt.Errorf("%w: single_select column %q needs at least one option", ErrInvalid, name)
	case ColumnAIScore:
		if def.Config == nil || strings.TrimSpace(def.Config.UserPrompt) == "" {
			return fmt.Errorf("%w: ai_score column %q needs a prompt", ErrInvalid, name)
		}
		for _, m := range ValidModels {
			if def.Config.ModelSelected == m {
				return nil
			}
		}
		return fmt.Errorf("%w: ai_score column %q has invalid model %q", ErrInvalid, name, def.Config.ModelSelected)
	default:
		return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalid, name, def.Type)
	}
}

// IsSystemList reports whether the id names one of the document's workflow
// lists.
func (c *Config) IsSystemList(id string) bool {
	for _, l := range c.Lists {
		if l.ID == id {
			return true
		}
	}
	return false
}

// FindCustomView returns the custom view with the given id, or nil.
func (c *Config) FindCustomView(id string) *CustomView {
	for i := range c.CustomViews {
		if c.CustomViews[i].ID == id {
			return &c.CustomViews[i]
		}
	}
	return nil
}
