// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema describes a YAML configuration struct as JSON Schema or Markdown,
// using the field's yaml tag for its name and its docdesc tag for its description.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

var (
	// ErrNotStruct is returned when the value to describe is not a struct.
	ErrNotStruct = errors.New("expected struct type")
	// ErrWrite is returned when the schema could not be written.
	ErrWrite = errors.New("failed to write schema")
)

// Field represents a field in a JSON schema.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Items       *Field `json:"items,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Generator builds schemas for a configuration struct. The struct value passed to
// its methods supplies both the fields and their defaults: a field with a
// non-zero value has that value as its default, and a field with neither a
// default nor omitempty in its yaml tag is required.
type Generator struct {
	Title       string
	Description string
}

// NewGenerator creates a new Generator.
func NewGenerator(title, description string) *Generator {
	return &Generator{Title: title, Description: description}
}

// Fields returns the schema fields of defaults, sorted by name.
func (g *Generator) Fields(defaults any) ([]Field, error) {
	v := reflect.ValueOf(defaults)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %s", ErrNotStruct, v.Kind())
	}

	fields := g.extractFields(v)
	slices.SortFunc(fields, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })

	return fields, nil
}

// JSONSchema returns the root JSON schema object for defaults.
func (g *Generator) JSONSchema(defaults any) (map[string]any, error) {
	fields, err := g.Fields(defaults)
	if err != nil {
		return nil, err
	}

	properties := make(map[string]any, len(fields))
	required := []string{}

	for _, field := range fields {
		properties[field.Name] = schemaFieldToProperty(field)

		if field.Required {
			required = append(required, field.Name)
		}
	}

	return map[string]any{
		"$schema":              draft,
		"type":                 "object",
		"title":                g.Title,
		"description":          g.Description,
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}, nil
}

// WriteJSONSchema writes the indented JSON schema for defaults to w.
func (g *Generator) WriteJSONSchema(w io.Writer, defaults any) error {
	schema, err := g.JSONSchema(defaults)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errors.Join(ErrWrite, err)
	}

	if _, err := w.Write(append(b, '\n')); err != nil {
		return errors.Join(ErrWrite, err)
	}

	return nil
}

// WriteMarkdownDoc writes a Markdown reference of the fields of defaults to w.
func (g *Generator) WriteMarkdownDoc(w io.Writer, defaults any) error {
	fields, err := g.Fields(defaults)
	if err != nil {
		return err
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", g.Title)

	if g.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", g.Description)
	}

	sb.WriteString("## Fields\n\n")

	for _, f := range fields {
		typ := f.Type
		if f.Items != nil {
			typ = fmt.Sprintf("array of %s", f.Items.Type)
		}

		fmt.Fprintf(&sb, "- **%s** (%s", f.Name, typ)

		switch {
		case f.Required:
			sb.WriteString(", required")
		case f.Default != nil:
			fmt.Fprintf(&sb, ", default `%v`", f.Default)
		default:
			sb.WriteString(", optional")
		}

		sb.WriteString(")")

		if f.Description != "" {
			fmt.Fprintf(&sb, ": %s", f.Description)
		}

		sb.WriteString("\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return errors.Join(ErrWrite, err)
	}

	return nil
}

// extractFields extracts schema fields from a struct value using reflection.
func (g *Generator) extractFields(v reflect.Value) []Field {
	t := v.Type()

	var fields []Field

	for i := range t.NumField() {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			fields = append(fields, g.extractFields(v.Field(i))...)
			continue
		}

		if f, ok := fieldToSchemaField(field, v.Field(i)); ok {
			fields = append(fields, f)
		}
	}

	return fields
}

// fieldToSchemaField converts a struct field and its default value to a Field.
func fieldToSchemaField(field reflect.StructField, value reflect.Value) (Field, bool) {
	yamlTag := field.Tag.Get("yaml")
	if yamlTag == "-" {
		return Field{}, false
	}

	name, opts, _ := strings.Cut(yamlTag, ",")
	if name == "" {
		name = strings.ToLower(field.Name)
	}

	f := Field{
		Name:        name,
		Type:        getSchemaType(field.Type),
		Description: field.Tag.Get("docdesc"),
	}

	if f.Type == "array" {
		f.Items = &Field{Type: getSchemaType(field.Type.Elem())}
	}

	if !value.IsZero() {
		f.Default = value.Interface()
	}

	f.Required = f.Default == nil && !slices.Contains(strings.Split(opts, ","), "omitempty")

	return f, true
}

// getSchemaType converts a Go type to a JSON schema type.
func getSchemaType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return getSchemaType(t.Elem())
	default:
		return "string"
	}
}

// schemaFieldToProperty converts a Field to a JSON schema property.
func schemaFieldToProperty(field Field) map[string]any {
	prop := map[string]any{
		"type": field.Type,
	}

	if field.Description != "" {
		prop["description"] = field.Description
	}

	if field.Default != nil {
		prop["default"] = field.Default
	}

	if field.Items != nil {
		prop["items"] = schemaFieldToProperty(*field.Items)
	}

	return prop
}
