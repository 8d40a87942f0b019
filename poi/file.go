package poi

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"herdwatch/types"
)

// FileSource loads points of interest from a YAML file.
type FileSource struct {
	Path string
}

// LoadFile reads a YAML POI file. The bounding box is not applied; files are corridor sized.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	idx.build()
	return &idx, nil
}

func (f FileSource) Load(_ context.Context, _ types.BoundingBox) (*Index, error) {
	return LoadFile(f.Path)
}

// Static wraps an already built index as a Source.
type Static struct {
	Index *Index
}

func (s Static) Load(context.Context, types.BoundingBox) (*Index, error) {
	if s.Index == nil {
		return NewIndex(nil, nil, nil, nil), nil
	}
	return s.Index, nil
}
