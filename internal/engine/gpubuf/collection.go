// Package gpubuf keeps mesh records paired with the GPU buffers that draw
// them, and the aggregate bounds of everything loaded.
package gpubuf

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/mesh"
)

// ErrDuplicate is returned when a record is added while already held.
var ErrDuplicate = errors.New("record already in collection")

// Handles names the GPU objects created for one record.
type Handles struct {
	VertexArray  uint32
	VertexBuffer uint32
	NormalBuffer uint32
	IndexBuffer  uint32
}

// Uploader creates and destroys GPU buffers. Calls happen on the goroutine
// that owns the graphics context.
type Uploader interface {
	Upload(rec *mesh.Record) (Handles, error)
	Release(h Handles)
}

// Item is what the render loop needs to draw one record.
type Item struct {
	Handles     Handles
	VertexCount int
	FaceCount   int
}

// Collection holds records and their handles at equal positions. Records
// added before an uploader is attached wait in a pending list and are not
// visible through Len, Each or Bounds until uploaded.
//
// A Collection is not safe for concurrent use; see Inbox for handing records
// over from loader goroutines.
type Collection struct {
	uploader Uploader
	records  []*mesh.Record
	handles  []Handles
	pending  []*mesh.Record
	held     map[*mesh.Record]struct{}
	bounds   mesh.BoundingBox
}

// New returns a collection that uploads through up. A nil up defers every
// upload until Attach.
func New(up Uploader) *Collection {
	return &Collection{
		uploader: up,
		held:     make(map[*mesh.Record]struct{}),
		bounds:   mesh.EmptyBounds(),
	}
}

// Add validates every record in seq and then uploads them in order. If any
// record is invalid or any upload fails, the collection is left unchanged
// and buffers created for earlier records of this call are released.
// The collection takes ownership of the records.
func (c *Collection) Add(seq mesh.Sequence) error {
	if seq == nil {
		return &mesh.InvalidError{Face: -1, Reason: "nil sequence"}
	}
	recs := seq.Records()
	batch := make(map[*mesh.Record]struct{}, len(recs))
	for i, rec := range recs {
		if rec == nil {
			return &mesh.InvalidError{Face: -1, Reason: fmt.Sprintf("record %d is nil", i)}
		}
		if err := rec.Validate(); err != nil {
			return err
		}
		if _, ok := c.held[rec]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicate, rec.Name)
		}
		if _, ok := batch[rec]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicate, rec.Name)
		}
		batch[rec] = struct{}{}
	}

	if c.uploader == nil {
		c.pending = append(c.pending, recs...)
		for rec := range batch {
			c.held[rec] = struct{}{}
		}
		return nil
	}
	if err := c.commit(recs); err != nil {
		return err
	}
	for rec := range batch {
		c.held[rec] = struct{}{}
	}
	return nil
}

// Attach sets the uploader and uploads pending records.
func (c *Collection) Attach(up Uploader) error {
	c.uploader = up
	return c.Flush()
}

// Flush uploads pending records. On failure the pending records are dropped
// and the error is returned.
func (c *Collection) Flush() error {
	if c.uploader == nil || len(c.pending) == 0 {
		return nil
	}
	recs := c.pending
	c.pending = nil
	if err := c.commit(recs); err != nil {
		for _, rec := range recs {
			delete(c.held, rec)
		}
		return err
	}
	return nil
}

func (c *Collection) commit(recs []*mesh.Record) error {
	uploaded := make([]Handles, 0, len(recs))
	for _, rec := range recs {
		h, err := c.uploader.Upload(rec)
		if err != nil {
			for _, u := range uploaded {
				c.uploader.Release(u)
			}
			return fmt.Errorf("uploading %q: %w", rec.Name, err)
		}
		uploaded = append(uploaded, h)
	}

	c.records = append(c.records, recs...)
	c.handles = append(c.handles, uploaded...)
	for _, rec := range recs {
		c.bounds = c.bounds.Union(rec.Bounds)
		logger.Debug("mesh uploaded",
			zap.String("mesh", rec.Name),
			zap.Int("vertices", rec.VertexCount()),
			zap.Int("faces", rec.FaceCount()))
	}
	return nil
}

// Len returns the number of uploaded records.
func (c *Collection) Len() int { return len(c.records) }

// Pending returns the number of records waiting for upload.
func (c *Collection) Pending() int { return len(c.pending) }

// Record returns the i-th uploaded record.
func (c *Collection) Record(i int) *mesh.Record { return c.records[i] }

// Handles returns the handles of the i-th uploaded record.
func (c *Collection) Handles(i int) Handles { return c.handles[i] }

// Each calls fn for every uploaded record in insertion order.
func (c *Collection) Each(fn func(i int, it Item)) {
	for i, rec := range c.records {
		fn(i, Item{Handles: c.handles[i], VertexCount: rec.VertexCount(), FaceCount: rec.FaceCount()})
	}
}

// Bounds returns the union of the bounds of all uploaded records. It is
// empty when nothing is uploaded.
func (c *Collection) Bounds() mesh.BoundingBox { return c.bounds }

// RecomputeBounds rebuilds the aggregate from the records. The result always
// equals the incrementally maintained value.
func (c *Collection) RecomputeBounds() mesh.BoundingBox {
	b := mesh.EmptyBounds()
	for _, rec := range c.records {
		b = b.Union(rec.Bounds)
	}
	c.bounds = b
	return b
}

// Remove releases the buffers of the i-th record and drops it.
func (c *Collection) Remove(i int) error {
	if i < 0 || i >= len(c.records) {
		return fmt.Errorf("remove %d: index out of range [0, %d)", i, len(c.records))
	}
	c.uploader.Release(c.handles[i])
	delete(c.held, c.records[i])
	c.records = append(c.records[:i], c.records[i+1:]...)
	c.handles = append(c.handles[:i], c.handles[i+1:]...)
	c.RecomputeBounds()
	return nil
}

// Clear releases every buffer and empties the collection, pending records
// included.
func (c *Collection) Clear() {
	for _, h := range c.handles {
		c.uploader.Release(h)
	}
	c.records = nil
	c.handles = nil
	c.pending = nil
	c.held = make(map[*mesh.Record]struct{})
	c.bounds = mesh.EmptyBounds()
}
