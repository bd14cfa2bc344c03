// Package content implements the rich-text document model and the resolver
// that substitutes temporary client-side blob references with durable
// storage URLs.
package content

import (
	"encoding/json"
	"fmt"

	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// Node types that carry a file reference attribute.
const (
	NodeTypeImage      = "image"
	NodeTypeVideo      = "video"
	NodeTypeAttachment = "attachment"
)

// Reference attribute names per node type: image and video use src,
// attachments use url.
const (
	AttrSrc  = "src"
	AttrURL  = "url"
	AttrName = "name"
)

// TempReferencePrefix marks a client-local placeholder reference that must
// be resolved to a durable storage URL before persistence. Browsers produce
// these via URL.createObjectURL, hence the blob: scheme.
const TempReferencePrefix = "blob:"

// Node is one element of a rich-text document tree. Attrs holds
// type-specific attributes (src, url, name, ...); Content holds nested
// child nodes.
type Node struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
}

// Document is a tree-shaped rich-text document: a flat list of top-level
// nodes, each of which may nest further nodes.
type Document struct {
	Content []*Node `json:"content"`
}

// ParseDocument decodes raw JSON into a Document.
// Returns domain.ErrMalformedContent (wrapped) if the payload is not a
// valid document structure.
func ParseDocument(raw json.RawMessage) (*Document, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrMalformedContent)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedContent, err)
	}

	if doc.Content == nil {
		return nil, fmt.Errorf("%w: missing content array", domain.ErrMalformedContent)
	}

	return &doc, nil
}

// Marshal encodes the document back to JSON for persistence.
func (d *Document) Marshal() (json.RawMessage, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return raw, nil
}

// ReferenceAttr returns the name of the node's file reference attribute, or
// "" when the node type carries none.
func (n *Node) ReferenceAttr() string {
	switch n.Type {
	case NodeTypeImage, NodeTypeVideo:
		return AttrSrc
	case NodeTypeAttachment:
		return AttrURL
	default:
		return ""
	}
}

// Reference returns the node's current file reference value, or "" when the
// node carries none.
func (n *Node) Reference() string {
	attr := n.ReferenceAttr()
	if attr == "" || n.Attrs == nil {
		return ""
	}
	ref, _ := n.Attrs[attr].(string)
	return ref
}

// SetReference replaces the node's file reference attribute in place.
func (n *Node) SetReference(value string) {
	attr := n.ReferenceAttr()
	if attr == "" {
		return
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[attr] = value
}
