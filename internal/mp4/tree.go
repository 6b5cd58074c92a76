package mp4

import (
	"github.com/simonhull/mp4meta/internal/binary"
)

// node is one atom in the write-side tree. A node backs either an original
// span in the source file (clean: copied through verbatim) or regenerated
// content (dirty: re-serialized with a freshly computed size).
type node struct {
	head     Head
	children []*node

	// extra holds bytes between the header and the first child for full
	// containers (the meta atom's version/flags field).
	extra []byte

	// payload holds regenerated leaf content, valid when dirty and the
	// node has no children.
	payload []byte

	dirty    bool
	inserted bool
	removed  bool
}

// child returns the first non-removed child of the given type.
func (n *node) child(fourcc Fourcc) *node {
	for _, c := range n.children {
		if c.head.Fourcc == fourcc && !c.removed {
			return c
		}
	}
	return nil
}

// ensureChild returns the child of the given type, appending a new inserted
// container node when absent.
func (n *node) ensureChild(fourcc Fourcc) *node {
	if c := n.child(fourcc); c != nil {
		return c
	}
	c := &node{
		head:     Head{Fourcc: fourcc, HeaderLen: 8},
		inserted: true,
		dirty:    true,
	}
	n.children = append(n.children, c)
	n.markDirty()
	return c
}

// setPayload replaces the node's content with regenerated bytes, dropping
// any parsed children.
func (n *node) setPayload(b []byte) {
	n.payload = b
	n.children = nil
	n.markDirty()
}

func (n *node) markDirty() {
	n.dirty = true
}

// markRemoved detaches the node from the output.
func (n *node) markRemoved() {
	n.removed = true
}

// parseTree builds the tree for [start, end), descending known containers
// and keeping everything else as opaque leaf spans.
func parseTree(sr *binary.SafeReader, start, end int64) ([]*node, error) {
	var nodes []*node
	offset := start
	for offset < end {
		head, err := parseHead(sr, offset, end)
		if err != nil {
			return nil, err
		}

		n := &node{head: head}
		if containers[head.Fourcc] {
			childStart := head.ContentOffset()
			if head.Fourcc == Metadata {
				// Full atom: version/flags precede the children.
				n.extra, err = sr.ReadBytes(childStart, 4, "meta version and flags")
				if err != nil {
					return nil, err
				}
				childStart += 4
			}
			n.children, err = parseTree(sr, childStart, head.End())
			if err != nil {
				return nil, err
			}
		}

		nodes = append(nodes, n)
		offset = head.End()
	}
	return nodes, nil
}

// anyDirty reports whether the node or any descendant needs
// re-serialization.
func (n *node) anyDirty() bool {
	if n.dirty || n.removed {
		return true
	}
	for _, c := range n.children {
		if c.anyDirty() {
			return true
		}
	}
	return false
}

// computeSize returns the node's serialized size, recomputing container
// sizes strictly post-order. Clean subtrees keep their original size; dirty
// nodes get a header form chosen by their new content length.
func (n *node) computeSize() uint64 {
	if !n.anyDirty() && !n.inserted {
		return n.head.Size
	}

	var content uint64
	content += uint64(len(n.extra))
	if n.payload != nil || len(n.children) == 0 {
		content += uint64(len(n.payload))
	} else {
		for _, c := range n.children {
			if c.removed {
				continue
			}
			content += c.computeSize()
		}
	}

	headerLen := uint64(8)
	if needsExtendedSize(content) {
		headerLen = 16
	}
	n.head.HeaderLen = uint8(headerLen)
	n.head.Size = headerLen + content
	return n.head.Size
}

// serialize writes the node: clean subtrees are copied verbatim from the
// source, dirty ones re-serialized with their recomputed sizes.
func (n *node) serialize(sr *binary.SafeReader, sw *binary.SafeWriter) error {
	if n.removed {
		return nil
	}

	if !n.anyDirty() && !n.inserted {
		return sr.WriteSection(sw, n.head.Offset, int64(n.head.Size), n.head.Fourcc.String()+" atom")
	}

	if n.head.HeaderLen == 16 {
		if err := binary.Write(sw, uint32(1)); err != nil {
			return err
		}
		if err := sw.WriteBytes(n.head.Fourcc[:]); err != nil {
			return err
		}
		if err := binary.Write(sw, n.head.Size); err != nil {
			return err
		}
	} else {
		if err := binary.Write(sw, uint32(n.head.Size)); err != nil {
			return err
		}
		if err := sw.WriteBytes(n.head.Fourcc[:]); err != nil {
			return err
		}
	}

	if len(n.extra) > 0 {
		if err := sw.WriteBytes(n.extra); err != nil {
			return err
		}
	}

	if n.payload != nil || len(n.children) == 0 {
		return sw.WriteBytes(n.payload)
	}

	for _, c := range n.children {
		if err := c.serialize(sr, sw); err != nil {
			return err
		}
	}
	return nil
}
