package notion

import (
	"encoding/json"
	"strings"

	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// propertyPayload is one raw property value. The type field selects which
// payload member is populated.
type propertyPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	Title          []richText       `json:"title,omitempty"`
	RichText       []richText       `json:"rich_text,omitempty"`
	Checkbox       *bool            `json:"checkbox,omitempty"`
	Number         *float64         `json:"number,omitempty"`
	Date           *datePayload     `json:"date,omitempty"`
	Select         *optionPayload   `json:"select,omitempty"`
	MultiSelect    []optionPayload  `json:"multi_select,omitempty"`
	Status         *optionPayload   `json:"status,omitempty"`
	URL            *string          `json:"url,omitempty"`
	Email          *string          `json:"email,omitempty"`
	PhoneNumber    *string          `json:"phone_number,omitempty"`
	CreatedTime    string           `json:"created_time,omitempty"`
	LastEditedTime string           `json:"last_edited_time,omitempty"`
	Formula        *formulaPayload  `json:"formula,omitempty"`
	People         []json.RawMessage `json:"people,omitempty"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type datePayload struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

type optionPayload struct {
	Name string `json:"name"`
}

type formulaPayload struct {
	Type    string       `json:"type"`
	String  *string      `json:"string,omitempty"`
	Number  *float64     `json:"number,omitempty"`
	Boolean *bool        `json:"boolean,omitempty"`
	Date    *datePayload `json:"date,omitempty"`
}

// resolveProperty maps a raw property onto exactly one tagged variant.
// This happens once at fetch time; the mapper never sees raw payloads.
func resolveProperty(p propertyPayload) types.PropertyValue {
	switch p.Type {
	case "title":
		return types.TextValue(plainText(p.Title))
	case "rich_text":
		return types.TextValue(plainText(p.RichText))
	case "checkbox":
		if p.Checkbox == nil {
			return types.BoolValue(false)
		}
		return types.BoolValue(*p.Checkbox)
	case "number":
		if p.Number == nil {
			return types.PropertyValue{Kind: types.KindNumber}
		}
		return types.NumberValue(*p.Number)
	case "date":
		if p.Date == nil {
			return types.DateValue("")
		}
		return types.DateValue(p.Date.Start)
	case "select":
		if p.Select == nil {
			return types.TextValue("")
		}
		return types.TextValue(p.Select.Name)
	case "status":
		if p.Status == nil {
			return types.TextValue("")
		}
		return types.TextValue(p.Status.Name)
	case "multi_select":
		// Option order as returned by the remote, preserved for set-join.
		names := make([]string, 0, len(p.MultiSelect))
		for _, o := range p.MultiSelect {
			names = append(names, o.Name)
		}
		return types.SetValue(names...)
	case "url":
		return types.TextValue(deref(p.URL))
	case "email":
		return types.TextValue(deref(p.Email))
	case "phone_number":
		return types.TextValue(deref(p.PhoneNumber))
	case "created_time":
		return types.DateValue(p.CreatedTime)
	case "last_edited_time":
		return types.DateValue(p.LastEditedTime)
	case "formula":
		return resolveFormula(p.Formula)
	}
	return types.PropertyValue{Kind: types.KindUnsupported}
}

func resolveFormula(f *formulaPayload) types.PropertyValue {
	if f == nil {
		return types.PropertyValue{Kind: types.KindUnsupported}
	}
	switch f.Type {
	case "string":
		return types.TextValue(deref(f.String))
	case "number":
		if f.Number == nil {
			return types.PropertyValue{Kind: types.KindNumber}
		}
		return types.NumberValue(*f.Number)
	case "boolean":
		if f.Boolean == nil {
			return types.BoolValue(false)
		}
		return types.BoolValue(*f.Boolean)
	case "date":
		if f.Date == nil {
			return types.DateValue("")
		}
		return types.DateValue(f.Date.Start)
	}
	return types.PropertyValue{Kind: types.KindUnsupported}
}

func plainText(parts []richText) string {
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
