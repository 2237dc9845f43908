package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// Reference validation outcomes.
const (
	RefValidContainer   = "valid_container"
	RefPageNoContainer  = "valid_page_no_container"
	RefInvalid          = "invalid"
)

// ContainerInfo describes a remote container's declared schema: property
// name to remote property type.
type ContainerInfo struct {
	ID         string
	Title      string
	Properties map[string]string
}

// databasePayload is the raw container shape.
type databasePayload struct {
	Object     string                     `json:"object"`
	ID         string                     `json:"id"`
	Title      []richText                 `json:"title"`
	Properties map[string]propertyConfig  `json:"properties"`
}

// propertyConfig is one schema property definition. Only the type tag is
// read on retrieval; the config objects are written on creation.
type propertyConfig struct {
	Type string `json:"type,omitempty"`

	Title       *struct{}      `json:"title,omitempty"`
	RichText    *struct{}      `json:"rich_text,omitempty"`
	Checkbox    *struct{}      `json:"checkbox,omitempty"`
	Date        *struct{}      `json:"date,omitempty"`
	Number      *struct{}      `json:"number,omitempty"`
	MultiSelect *selectOptions `json:"multi_select,omitempty"`
}

type selectOptions struct {
	Options []optionPayload `json:"options"`
}

// RetrieveContainer fetches a container's schema.
func (c *Client) RetrieveContainer(ctx context.Context, id string) (*ContainerInfo, error) {
	var db databasePayload
	if err := c.do(ctx, "GET", "/databases/"+id, nil, &db); err != nil {
		return nil, fmt.Errorf("retrieve container %s: %w", id, err)
	}
	info := &ContainerInfo{
		ID:         db.ID,
		Title:      plainText(db.Title),
		Properties: make(map[string]string, len(db.Properties)),
	}
	for name, prop := range db.Properties {
		info.Properties[name] = prop.Type
	}
	return info, nil
}

// RetrievePage fetches a single record by ID.
func (c *Client) RetrievePage(ctx context.Context, id string) (*types.Record, error) {
	var p pagePayload
	if err := c.do(ctx, "GET", "/pages/"+id, nil, &p); err != nil {
		return nil, fmt.Errorf("retrieve page %s: %w", id, err)
	}
	return decodeRecord(&p), nil
}

// ValidateRef classifies a configured reference: a reachable container, a
// plain page with no container behind it, or invalid.
func (c *Client) ValidateRef(ctx context.Context, ref string) (string, error) {
	_, err := c.RetrieveContainer(ctx, ref)
	if err == nil {
		return RefValidContainer, nil
	}

	var re *types.RemoteError
	if !errors.As(err, &re) {
		return RefInvalid, err
	}
	switch re.Status {
	case http.StatusNotFound, http.StatusBadRequest:
		// Not a container; it may still be a plain page.
	case http.StatusUnauthorized, http.StatusForbidden:
		return RefInvalid, err
	default:
		return RefInvalid, err
	}

	if _, err := c.RetrievePage(ctx, ref); err == nil {
		return RefPageNoContainer, nil
	}
	return RefInvalid, err
}

// EstimateRecordCount walks the container listing counting records, capped
// at limit. It answers "is this container larger than limit" without
// pulling the full contents.
func (c *Client) EstimateRecordCount(ctx context.Context, containerID string, limit int) (int, error) {
	count := 0
	cursor := ""
	for {
		records, next, err := c.ListRecords(ctx, containerID, cursor, 100)
		if err != nil {
			return count, err
		}
		count += len(records)
		if next == "" || count > limit {
			return count, nil
		}
		cursor = next
	}
}

// AddSchemaFields additively creates the given properties on the container.
// Existing properties are never modified or removed.
func (c *Client) AddSchemaFields(ctx context.Context, containerID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	props := make(map[string]propertyConfig, len(fields))
	for name, kind := range fields {
		props[name] = schemaConfigFor(kind)
	}
	body := map[string]any{"properties": props}
	if err := c.do(ctx, "PATCH", "/databases/"+containerID, body, nil); err != nil {
		return fmt.Errorf("add schema fields to %s: %w", containerID, err)
	}
	return nil
}

// CreateContainer creates a new container under the given parent page with
// the given schema, returning the new container ID.
func (c *Client) CreateContainer(ctx context.Context, parentPageID, title string, fields map[string]string) (string, error) {
	props := make(map[string]propertyConfig, len(fields))
	for name, kind := range fields {
		props[name] = schemaConfigFor(kind)
	}
	body := map[string]any{
		"parent":     map[string]string{"type": "page_id", "page_id": parentPageID},
		"title":      []map[string]any{{"type": "text", "text": map[string]string{"content": title}}},
		"properties": props,
	}
	var db databasePayload
	if err := c.do(ctx, "POST", "/databases", body, &db); err != nil {
		return "", fmt.Errorf("create container under %s: %w", parentPageID, err)
	}
	return db.ID, nil
}

// CheckAccess verifies the credential can reach the workspace at all.
func (c *Client) CheckAccess(ctx context.Context) error {
	return c.do(ctx, "GET", "/users/me", nil, nil)
}

// schemaConfigFor returns the property creation payload for a remote
// property type. Title properties carry the title config; everything else
// gets its empty type object.
func schemaConfigFor(kind string) propertyConfig {
	empty := &struct{}{}
	switch kind {
	case "title":
		return propertyConfig{Title: empty}
	case "checkbox":
		return propertyConfig{Checkbox: empty}
	case "date":
		return propertyConfig{Date: empty}
	case "number":
		return propertyConfig{Number: empty}
	case "multi_select":
		return propertyConfig{MultiSelect: &selectOptions{Options: []optionPayload{}}}
	default:
		return propertyConfig{RichText: empty}
	}
}
