package metadata

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	fitsBlockSize = 2880
	fitsCardSize  = 80

	// A primary header larger than this is not a calibration or light
	// frame header we care about.
	fitsMaxHeaderBlocks = 64
)

// readFITSHeader reads the primary header of a FITS file: 80-byte cards
// packed into 2880-byte blocks, terminated by the END keyword.
func readFITSHeader(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: open %s: %w", path, err)
	}
	defer f.Close()

	cards := make(map[string]string)
	block := make([]byte, fitsBlockSize)

	for n := 0; n < fitsMaxHeaderBlocks; n++ {
		if _, err := io.ReadFull(f, block); err != nil {
			return nil, fmt.Errorf("metadata: read header %s: %w", path, err)
		}
		if n == 0 && !strings.HasPrefix(string(block[:fitsCardSize]), "SIMPLE") {
			return nil, fmt.Errorf("metadata: not a FITS file: %s", path)
		}
		for off := 0; off < fitsBlockSize; off += fitsCardSize {
			card := string(block[off : off+fitsCardSize])
			name := strings.TrimSpace(card[:8])
			if name == "END" {
				return cards, nil
			}
			if name == "" || name == "COMMENT" || name == "HISTORY" {
				continue
			}
			// Value cards carry "= " in columns 9-10.
			if len(card) < 10 || card[8] != '=' {
				continue
			}
			cards[name] = parseFITSValue(card[10:])
		}
	}
	return nil, fmt.Errorf("metadata: unterminated FITS header: %s", path)
}

// parseFITSValue extracts the value portion of a card, stripping the
// inline comment and string quoting. Quoted strings escape a single
// quote by doubling it.
func parseFITSValue(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "'") {
		rest := s[1:]
		var b strings.Builder
		for i := 0; i < len(rest); i++ {
			if rest[i] != '\'' {
				b.WriteByte(rest[i])
				continue
			}
			if i+1 < len(rest) && rest[i+1] == '\'' {
				b.WriteByte('\'')
				i++
				continue
			}
			break
		}
		return strings.TrimRight(b.String(), " ")
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
