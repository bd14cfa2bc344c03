package content

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
)

// BlobStore is the binary object storage consumed by the resolver. Each file
// is uploaded once, before its reference is substituted into the document.
type BlobStore interface {
	// Put stores the given bytes under the given path and returns the
	// durable URL at which they can be fetched.
	Put(ctx context.Context, storagePath string, data []byte) (string, error)
}

// UploadedFile is one binary attachment received alongside a create/update
// request, in upload order.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// FileCursor matches uploaded files to placeholder nodes strictly by upload
// order. One cursor is shared across every document processed in the same
// request, so the file-to-placeholder mapping spans fields: the cursor must
// not be reset between, say, description and expected result.
type FileCursor struct {
	files []UploadedFile
	pos   int
}

// NewFileCursor creates a cursor over the request's uploaded files.
func NewFileCursor(files []UploadedFile) *FileCursor {
	return &FileCursor{files: files}
}

// next consumes and returns the next unconsumed file, or nil when exhausted.
func (c *FileCursor) next() *UploadedFile {
	if c.pos >= len(c.files) {
		return nil
	}
	f := &c.files[c.pos]
	c.pos++
	return f
}

// Unused returns the number of uploaded files never consumed by any node.
func (c *FileCursor) Unused() int {
	return len(c.files) - c.pos
}

// Resolver walks rich-text documents and replaces temporary blob references
// with durable storage URLs.
type Resolver struct {
	blobs  BlobStore
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by the given blob store.
func NewResolver(blobs BlobStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Resolver")
	}
	return &Resolver{
		blobs:  blobs,
		logger: logger.With(slog.String("component", "content_resolver")),
	}
}

// Resolve walks the document depth-first, pre-order, uploading one file for
// each node whose reference attribute begins with the temporary-reference
// prefix and substituting the returned URL in place. Files are matched to
// placeholders strictly by upload order through the shared cursor. A node
// reached after the cursor is exhausted keeps its temporary reference and a
// warning is logged; the caller decides what to do about leftovers via
// cursor.Unused().
func (r *Resolver) Resolve(ctx context.Context, doc *Document, cursor *FileCursor) error {
	for _, node := range doc.Content {
		if err := r.resolveNode(ctx, node, cursor); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveNode(ctx context.Context, node *Node, cursor *FileCursor) error {
	ref := node.Reference()
	if strings.HasPrefix(ref, TempReferencePrefix) {
		file := cursor.next()
		if file == nil {
			r.logger.Warn("no uploaded file left for temporary reference",
				"node_type", node.Type,
				"reference", ref)
		} else {
			if node.Type == NodeTypeAttachment {
				// Attachments carry the client's filename; a mismatch with
				// the uploaded file is suspicious but not fatal, order wins.
				if name, _ := node.Attrs[AttrName].(string); name != "" && name != file.Filename {
					r.logger.Warn("attachment filename does not match uploaded file",
						"node_name", name,
						"file_name", file.Filename)
				}
			}

			url, err := r.upload(ctx, file)
			if err != nil {
				return fmt.Errorf("failed to upload file %q: %w", file.Filename, err)
			}
			node.SetReference(url)
		}
	}

	// Pre-order: children after the node itself.
	for _, child := range node.Content {
		if err := r.resolveNode(ctx, child, cursor); err != nil {
			return err
		}
	}

	return nil
}

// upload stores the file under a collision-free path and returns its URL.
func (r *Resolver) upload(ctx context.Context, file *UploadedFile) (string, error) {
	storagePath := path.Join(uuid.NewString(), file.Filename)
	return r.blobs.Put(ctx, storagePath, file.Data)
}
