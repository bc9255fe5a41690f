package harvest

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// LoadArtists reads a newline-separated artist list. Surrounding whitespace,
// carriage returns and blank lines are dropped; order is preserved because the
// offset indexes into it.
func LoadArtists(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artist list: %w", err)
	}
	return ParseArtists(data), nil
}

// ParseArtists splits data into artist names.
func ParseArtists(data []byte) []string {
	var artists []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		artists = append(artists, name)
	}
	return artists
}
