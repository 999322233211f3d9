package jobs

import (
	"fmt"
	"strings"
)

// Kind identifies which render backend produced a job.
type Kind int

const (
	KindUnset Kind = iota
	KindGmic
	KindMLTXML
	KindBlender
)

const containerClip = "Container Clip"

var kindNames = map[Kind]string{
	KindUnset:   "unset",
	KindGmic:    "gmic",
	KindMLTXML:  "mlt_xml",
	KindBlender: "blender",
}

// String returns the machine name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Label returns the text shown in the type column. An unset kind means the
// backend forgot to set it and is shown as such instead of failing.
func (k Kind) Label() string {
	switch k {
	case KindGmic:
		return containerClip + " G'Mic"
	case KindMLTXML:
		return containerClip + " MLT XML"
	case KindBlender:
		return containerClip + " Blender"
	default:
		return "NO TYPE SET"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a machine name produced by String
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "mlt", "melt":
		return KindMLTXML, nil
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindUnset, fmt.Errorf("unknown job kind %q", s)
}
