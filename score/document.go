package score

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/mager/species/theory"
	"gopkg.in/yaml.v3"
)

// Format is a score document encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMusicXML Format = "musicxml"
	FormatMIDI     Format = "midi"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "musicxml", "xml":
		return FormatMusicXML, nil
	case "midi", "mid", "smf":
		return FormatMIDI, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatForPath picks a format from a file name.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// FormatForContentType maps a request content type to a format. An empty
// content type means JSON.
func FormatForContentType(ct string) (Format, error) {
	if ct == "" {
		return FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("%w: content type %q", ErrUnsupportedFormat, ct)
	}
	switch mt {
	case "application/json":
		return FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return FormatYAML, nil
	case "application/vnd.recordare.musicxml+xml", "application/xml", "text/xml":
		return FormatMusicXML, nil
	case "audio/midi", "audio/x-midi":
		return FormatMIDI, nil
	}
	return "", fmt.Errorf("%w: content type %q", ErrUnsupportedFormat, ct)
}

// DecodeOptions fill in what a MIDI file cannot express.
type DecodeOptions struct {
	// Key is used for MIDI input, which carries no reliable key.
	Key *theory.Key
	// CantusFirmusAbove names the upper MIDI track "CF".
	CantusFirmusAbove bool
}

// Decode reads and validates a score document.
func Decode(r io.Reader, f Format, opts DecodeOptions) (*Score, error) {
	var (
		s   *Score
		err error
	)
	switch f {
	case FormatJSON:
		s = &Score{}
		err = json.NewDecoder(r).Decode(s)
	case FormatYAML:
		s = &Score{}
		err = yaml.NewDecoder(r).Decode(s)
	case FormatMusicXML:
		s, err = ReadMusicXML(r)
	case FormatMIDI:
		s, err = ReadMIDI(r, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s score: %w", f, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode writes s as a JSON or YAML document.
func Encode(w io.Writer, s *Score, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: cannot encode %q", ErrUnsupportedFormat, f)
}
