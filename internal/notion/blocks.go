package notion

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// maxBlockDepth bounds recursion into nested child blocks.
const maxBlockDepth = 3

// blockPayload is one content block. Only the rich-text-bearing members the
// converter understands are decoded; everything else is skipped.
type blockPayload struct {
	Object      string        `json:"object"`
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	HasChildren bool          `json:"has_children"`
	Paragraph   *textBlock    `json:"paragraph,omitempty"`
	Heading1    *textBlock    `json:"heading_1,omitempty"`
	Heading2    *textBlock    `json:"heading_2,omitempty"`
	Heading3    *textBlock    `json:"heading_3,omitempty"`
	Bulleted    *textBlock    `json:"bulleted_list_item,omitempty"`
	Numbered    *textBlock    `json:"numbered_list_item,omitempty"`
	ToDo        *todoBlock    `json:"to_do,omitempty"`
	Quote       *textBlock    `json:"quote,omitempty"`
	Code        *codeBlock    `json:"code,omitempty"`
	Image       *fileBlock    `json:"image,omitempty"`
}

type textBlock struct {
	RichText []annotatedText `json:"rich_text"`
}

type todoBlock struct {
	RichText []annotatedText `json:"rich_text"`
	Checked  bool            `json:"checked"`
}

type codeBlock struct {
	RichText []annotatedText `json:"rich_text"`
	Language string          `json:"language"`
}

type fileBlock struct {
	Type     string          `json:"type"`
	Caption  []annotatedText `json:"caption"`
	External *urlRef         `json:"external,omitempty"`
	File     *urlRef         `json:"file,omitempty"`
}

type urlRef struct {
	URL string `json:"url"`
}

type annotatedText struct {
	PlainText   string       `json:"plain_text"`
	Href        string       `json:"href,omitempty"`
	Annotations *annotations `json:"annotations,omitempty"`
}

type annotations struct {
	Bold          bool `json:"bold"`
	Italic        bool `json:"italic"`
	Strikethrough bool `json:"strikethrough"`
	Code          bool `json:"code"`
}

type blockListResponse struct {
	Results    []blockPayload `json:"results"`
	HasMore    bool           `json:"has_more"`
	NextCursor string         `json:"next_cursor"`
}

// GetBody fetches a record's block content and renders it as markdown.
// The result is opaque to the rest of the engine beyond feeding the
// fingerprint and the written file.
func (c *Client) GetBody(ctx context.Context, recordID string) (string, error) {
	blocks, err := c.listBlocks(ctx, recordID, 0)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	renderBlocks(&b, blocks, 0)
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// renderedBlock pairs a block with its fetched children.
type renderedBlock struct {
	block    blockPayload
	children []renderedBlock
}

// listBlocks pages through a block's children, recursing into nested
// blocks up to maxBlockDepth.
func (c *Client) listBlocks(ctx context.Context, blockID string, depth int) ([]renderedBlock, error) {
	var out []renderedBlock
	cursor := ""
	for {
		path := "/blocks/" + blockID + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var resp blockListResponse
		if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
			return nil, fmt.Errorf("list blocks of %s: %w", blockID, err)
		}
		for _, blk := range resp.Results {
			rb := renderedBlock{block: blk}
			if blk.HasChildren && depth < maxBlockDepth {
				children, err := c.listBlocks(ctx, blk.ID, depth+1)
				if err != nil {
					return nil, err
				}
				rb.children = children
			}
			out = append(out, rb)
		}
		if !resp.HasMore {
			return out, nil
		}
		cursor = resp.NextCursor
	}
}

// renderBlocks converts blocks to markdown. Unknown block types are
// skipped; list nesting indents by two spaces per level.
func renderBlocks(b *strings.Builder, blocks []renderedBlock, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, rb := range blocks {
		blk := rb.block
		switch blk.Type {
		case "paragraph":
			if blk.Paragraph != nil {
				b.WriteString(indent + renderRichText(blk.Paragraph.RichText) + "\n\n")
			}
		case "heading_1":
			if blk.Heading1 != nil {
				b.WriteString("# " + renderRichText(blk.Heading1.RichText) + "\n\n")
			}
		case "heading_2":
			if blk.Heading2 != nil {
				b.WriteString("## " + renderRichText(blk.Heading2.RichText) + "\n\n")
			}
		case "heading_3":
			if blk.Heading3 != nil {
				b.WriteString("### " + renderRichText(blk.Heading3.RichText) + "\n\n")
			}
		case "bulleted_list_item":
			if blk.Bulleted != nil {
				b.WriteString(indent + "- " + renderRichText(blk.Bulleted.RichText) + "\n")
			}
		case "numbered_list_item":
			if blk.Numbered != nil {
				b.WriteString(indent + "1. " + renderRichText(blk.Numbered.RichText) + "\n")
			}
		case "to_do":
			if blk.ToDo != nil {
				box := "[ ]"
				if blk.ToDo.Checked {
					box = "[x]"
				}
				b.WriteString(indent + "- " + box + " " + renderRichText(blk.ToDo.RichText) + "\n")
			}
		case "quote":
			if blk.Quote != nil {
				b.WriteString("> " + renderRichText(blk.Quote.RichText) + "\n\n")
			}
		case "code":
			if blk.Code != nil {
				b.WriteString("```" + blk.Code.Language + "\n" +
					plainAnnotated(blk.Code.RichText) + "\n```\n\n")
			}
		case "divider":
			b.WriteString("---\n\n")
		case "image":
			if blk.Image != nil {
				src := ""
				if blk.Image.External != nil {
					src = blk.Image.External.URL
				} else if blk.Image.File != nil {
					src = blk.Image.File.URL
				}
				if src != "" {
					caption := renderRichText(blk.Image.Caption)
					b.WriteString(fmt.Sprintf("![%s](%s)\n\n", caption, src))
				}
			}
		}
		if len(rb.children) > 0 {
			renderBlocks(b, rb.children, depth+1)
		}
	}
}

// renderRichText applies inline markdown annotations.
func renderRichText(parts []annotatedText) string {
	var b strings.Builder
	for _, p := range parts {
		text := p.PlainText
		if a := p.Annotations; a != nil {
			if a.Code {
				text = "`" + text + "`"
			}
			if a.Bold {
				text = "**" + text + "**"
			}
			if a.Italic {
				text = "*" + text + "*"
			}
			if a.Strikethrough {
				text = "~~" + text + "~~"
			}
		}
		if p.Href != "" {
			text = "[" + text + "](" + p.Href + ")"
		}
		b.WriteString(text)
	}
	return b.String()
}

// plainAnnotated concatenates text without annotations, for code blocks.
func plainAnnotated(parts []annotatedText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}
