package metadata

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// xisfSignature opens every monolithic XISF file, followed by a
// little-endian uint32 header length and four reserved bytes.
var xisfSignature = []byte("XISF0100")

const xisfMaxHeaderLen = 8 << 20

type xisfKeyword struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// readXISFHeader reads the XML header of a monolithic XISF file and
// collects its embedded FITSKeyword elements.
func readXISFHeader(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: open %s: %w", path, err)
	}
	defer f.Close()

	var preamble [16]byte
	if _, err := io.ReadFull(f, preamble[:]); err != nil {
		return nil, fmt.Errorf("metadata: read preamble %s: %w", path, err)
	}
	if string(preamble[:8]) != string(xisfSignature) {
		return nil, fmt.Errorf("metadata: not an XISF file: %s", path)
	}
	headerLen := binary.LittleEndian.Uint32(preamble[8:12])
	if headerLen == 0 || headerLen > xisfMaxHeaderLen {
		return nil, fmt.Errorf("metadata: implausible XISF header length %d: %s", headerLen, path)
	}

	cards := make(map[string]string)
	dec := xml.NewDecoder(io.LimitReader(f, int64(headerLen)))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("metadata: parse XISF header %s: %w", path, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "FITSKeyword" {
			continue
		}
		var kw xisfKeyword
		if err := dec.DecodeElement(&kw, &start); err != nil {
			return nil, fmt.Errorf("metadata: parse FITSKeyword %s: %w", path, err)
		}
		name := strings.TrimSpace(kw.Name)
		if name == "" {
			continue
		}
		// XISF stores the raw card value, quotes included for strings.
		cards[name] = parseFITSValue(kw.Value)
	}
	return cards, nil
}
