package models

import "fmt"

// Source tags the origin of a piece of opinion text.
type Source uint8

const (
	SourceBoard Source = iota + 1
	SourceNews
	SourceForum
)

// Sources lists every source in the order results are reported.
var Sources = []Source{SourceBoard, SourceNews, SourceForum}

var sourceNames = map[Source]string{
	SourceBoard: "comments",
	SourceNews:  "news",
	SourceForum: "investing",
}

// String returns the wire name used in stored records and API responses.
func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("source(%d)", uint8(s))
}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	_, ok := sourceNames[s]
	return ok
}

// ParseSource maps a wire name back to its tag.
func ParseSource(raw string) (Source, error) {
	for src, name := range sourceNames {
		if name == raw {
			return src, nil
		}
	}
	return 0, fmt.Errorf("unknown source %q", raw)
}

// MarshalText keeps JSON documents readable.
func (s Source) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid source %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(data []byte) error {
	parsed, err := ParseSource(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
