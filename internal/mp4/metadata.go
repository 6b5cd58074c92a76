package mp4

import (
	"bytes"
	"fmt"

	"github.com/simonhull/mp4meta/internal/binary"
	"github.com/simonhull/mp4meta/internal/types"
)

// parseIlst decodes the item list into ordered meta items. A malformed
// single entry is dropped with a warning; the rest of the list stays intact.
func parseIlst(sr *binary.SafeReader, ilst Head, cfg ReadConfig, tag *types.Tag) error {
	offset := ilst.ContentOffset()
	end := ilst.End()

	for offset < end {
		head, err := parseHead(sr, offset, end)
		if err != nil {
			return err
		}

		if head.Fourcc != Free {
			item, err := parseMetaItem(sr, head, cfg)
			switch {
			case err != nil:
				tag.Warnings = append(tag.Warnings, types.Warning{
					Stage:   "metadata",
					Message: fmt.Sprintf("dropped item %q: %v", head.Fourcc, err),
					Offset:  head.Offset,
				})
			case len(item.Data) > 0:
				tag.Items = append(tag.Items, item)
			}
		}

		offset = head.End()
	}

	return nil
}

// parseMetaItem decodes one item atom: its data children, and for freeform
// "----" atoms the mean/name pair making up the identifier. A mean/name
// pair with no data child yields no entry.
func parseMetaItem(sr *binary.SafeReader, item Head, cfg ReadConfig) (types.MetaItem, error) {
	var (
		data       []types.Data
		mean, name string
		hasMean    bool
		hasName    bool
	)

	offset := item.ContentOffset()
	end := item.End()

	for offset < end {
		head, err := parseHead(sr, offset, end)
		if err != nil {
			return types.MetaItem{}, err
		}

		switch head.Fourcc {
		case DataAtom:
			d, ok, err := parseData(sr, head, cfg)
			if err != nil {
				return types.MetaItem{}, err
			}
			if ok {
				data = append(data, d)
			}
		case MeanAtom:
			mean, err = parseFullString(sr, head)
			if err != nil {
				return types.MetaItem{}, err
			}
			hasMean = true
		case NameAtom:
			name, err = parseFullString(sr, head)
			if err != nil {
				return types.MetaItem{}, err
			}
			hasName = true
		}

		offset = head.End()
	}

	ident := types.Ident(item.Fourcc)
	if item.Fourcc == Freeform && hasMean && hasName {
		ident = types.FreeformIdent{Mean: mean, Name: name}
	}

	return types.MetaItem{Ident: ident, Data: data}, nil
}

// parseFullString reads a full atom (version/flags header) whose remaining
// content is a UTF-8 string, the layout mean and name atoms use.
func parseFullString(sr *binary.SafeReader, head Head) (string, error) {
	if head.ContentLen() < 4 {
		return "", &types.TruncatedError{
			Path:   sr.Path(),
			Atom:   head.Fourcc.String(),
			What:   "version and flags",
			Offset: head.ContentOffset(),
			Need:   4,
			Have:   head.ContentLen(),
		}
	}
	r := binary.NewReader(sr, head.ContentOffset())
	r.Skip(4)
	return r.ReadString(head.ContentLen()-4, head.Fourcc.String()+" string")
}

// metaItemLen returns the full on-disk length of one serialized item atom.
func metaItemLen(item types.MetaItem) (uint64, error) {
	n := uint64(8)
	if ff, ok := item.Ident.(types.FreeformIdent); ok {
		n += 12 + uint64(len(ff.Mean))
		n += 12 + uint64(len(ff.Name))
	}
	for _, d := range item.Data {
		dl, err := dataAtomLen(d)
		if err != nil {
			return 0, err
		}
		n += dl
	}
	return n, nil
}

// writeMetaItem serializes one item atom including, for freeform
// identifiers, the enclosing mean and name atoms.
func writeMetaItem(sw *binary.SafeWriter, item types.MetaItem) error {
	total, err := metaItemLen(item)
	if err != nil {
		return err
	}
	if err := binary.Write(sw, uint32(total)); err != nil {
		return err
	}

	switch ident := item.Ident.(type) {
	case Fourcc:
		if err := sw.WriteBytes(ident[:]); err != nil {
			return err
		}
	case types.FreeformIdent:
		if err := sw.WriteBytes(Freeform[:]); err != nil {
			return err
		}
		if err := writeFullString(sw, MeanAtom, ident.Mean); err != nil {
			return err
		}
		if err := writeFullString(sw, NameAtom, ident.Name); err != nil {
			return err
		}
	default:
		return &types.UnsupportedWriteError{
			Reason: fmt.Sprintf("unknown identifier type %T", item.Ident),
		}
	}

	for _, d := range item.Data {
		if err := writeData(sw, d); err != nil {
			return err
		}
	}
	return nil
}

func writeFullString(sw *binary.SafeWriter, fourcc Fourcc, s string) error {
	if err := binary.Write(sw, uint32(12+len(s))); err != nil {
		return err
	}
	if err := sw.WriteBytes(fourcc[:]); err != nil {
		return err
	}
	if err := binary.Write(sw, uint32(0)); err != nil {
		return err
	}
	return sw.WriteString(s)
}

// ilstPayload serializes the whole item list into the content bytes of an
// ilst atom.
func ilstPayload(items []types.MetaItem) ([]byte, error) {
	var buf bytes.Buffer
	sw := binary.NewSafeWriter(&buf)
	for _, item := range items {
		if len(item.Data) == 0 {
			continue
		}
		if err := writeMetaItem(sw, item); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
