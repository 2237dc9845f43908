package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// queryRequest is the container query payload.
type queryRequest struct {
	PageSize    int    `json:"page_size,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
}

// queryResponse is one page of container query results.
type queryResponse struct {
	Results    []pagePayload `json:"results"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor"`
}

// pagePayload is the raw remote record shape.
type pagePayload struct {
	Object         string                     `json:"object"`
	ID             string                     `json:"id"`
	CreatedTime    string                     `json:"created_time"`
	LastEditedTime string                     `json:"last_edited_time"`
	Archived       bool                       `json:"archived"`
	Parent         parentPayload              `json:"parent"`
	Properties     map[string]propertyPayload `json:"properties"`
}

type parentPayload struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

// ListRecords fetches one page of records from the container, resolving
// every property to a typed value. The returned cursor resumes the listing;
// an empty cursor means the listing is complete. Listing is resumable from
// any previously returned cursor.
func (c *Client) ListRecords(ctx context.Context, containerID, cursor string, pageSize int) ([]*types.Record, string, error) {
	req := queryRequest{PageSize: pageSize, StartCursor: cursor}
	var resp queryResponse
	if err := c.do(ctx, "POST", "/databases/"+containerID+"/query", req, &resp); err != nil {
		return nil, "", fmt.Errorf("query container %s: %w", containerID, err)
	}

	records := make([]*types.Record, 0, len(resp.Results))
	for i := range resp.Results {
		p := &resp.Results[i]
		if p.Object != "page" {
			continue
		}
		records = append(records, decodeRecord(p))
	}

	next := ""
	if resp.HasMore {
		next = resp.NextCursor
	}
	return records, next, nil
}

// decodeRecord converts the raw payload into a Record, resolving each
// property to its tagged variant exactly once.
func decodeRecord(p *pagePayload) *types.Record {
	rec := &types.Record{
		ID:            p.ID,
		ContainerID:   p.Parent.DatabaseID,
		Archived:      p.Archived,
		CreatedRaw:    p.CreatedTime,
		LastEditedRaw: p.LastEditedTime,
		Properties:    make(map[string]types.PropertyValue, len(p.Properties)),
	}
	if t, err := time.Parse(time.RFC3339, p.CreatedTime); err == nil {
		rec.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, p.LastEditedTime); err == nil {
		rec.LastEditedAt = t
	}
	for name, prop := range p.Properties {
		rec.Properties[name] = resolveProperty(prop)
	}
	return rec
}
