package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Useful test file to confirm what we're able to actually read from the different atoms.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: atom-dump <file.m4b>")
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	dumpAtoms(f, 0, 0, 0, "")
}

func dumpAtoms(r io.ReaderAt, offset int64, end int64, depth int, parent string) {
	if end == 0 {
		// Get file size
		if f, ok := r.(*os.File); ok {
			stat, _ := f.Stat()
			end = stat.Size()
		}
	}

	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	for offset < end {
		// Read atom header
		header := make([]byte, 8)
		if _, err := r.ReadAt(header, offset); err != nil {
			return
		}

		size := binary.BigEndian.Uint32(header[0:4])
		atomType := string(header[4:8])

		// Handle extended size
		atomSize := uint64(size)
		headerSize := int64(8)
		if size == 1 {
			extSize := make([]byte, 8)
			r.ReadAt(extSize, offset+8)
			atomSize = binary.BigEndian.Uint64(extSize)
			headerSize = 16
		}

		fmt.Printf("%s%s (size: %d, offset: %d)\n", indent, atomType, atomSize, offset)

		if atomType == "data" && atomSize >= 16 {
			dumpDataAtom(r, offset+headerSize, int64(atomSize)-headerSize, indent)
		}

		// Recurse into container atoms; every ilst child is an item
		// container holding data/mean/name atoms.
		if isContainer(atomType) || parent == "ilst" {
			dataOffset := offset + headerSize

			// meta atom has 4 extra bytes
			if atomType == "meta" {
				dataOffset += 4
			}

			dataEnd := offset + int64(atomSize)
			dumpAtoms(r, dataOffset, dataEnd, depth+1, atomType)
		}

		offset += int64(atomSize)

		if atomSize == 0 {
			break
		}
	}
}

// dumpDataAtom previews an ilst data atom: type indicator, locale, and the
// first bytes of the payload.
func dumpDataAtom(r io.ReaderAt, offset, size int64, indent string) {
	head := make([]byte, 8)
	if _, err := r.ReadAt(head, offset); err != nil {
		return
	}
	code := binary.BigEndian.Uint32(head[0:4])

	payloadLen := size - 8
	preview := payloadLen
	if preview > 40 {
		preview = 40
	}
	payload := make([]byte, preview)
	if _, err := r.ReadAt(payload, offset+8); err != nil {
		return
	}

	switch code {
	case 1: // UTF-8
		fmt.Printf("%s  └ utf8 %q\n", indent, string(payload))
	case 2: // UTF-16
		fmt.Printf("%s  └ utf16 (%d bytes)\n", indent, payloadLen)
	case 13:
		fmt.Printf("%s  └ jpeg (%d bytes)\n", indent, payloadLen)
	case 14:
		fmt.Printf("%s  └ png (%d bytes)\n", indent, payloadLen)
	case 21:
		fmt.Printf("%s  └ be-signed % x\n", indent, payload)
	default:
		fmt.Printf("%s  └ code %d (%d bytes)\n", indent, code, payloadLen)
	}
}

func isContainer(atomType string) bool {
	containers := map[string]bool{
		"moov": true,
		"trak": true,
		"tref": true,
		"mdia": true,
		"minf": true,
		"stbl": true,
		"udta": true,
		"meta": true,
		"ilst": true,
	}
	return containers[atomType]
}
