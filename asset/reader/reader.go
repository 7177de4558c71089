package reader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/achilleasa/kdtrace/asset"
	"github.com/achilleasa/kdtrace/scene"
)

var ErrUnsupportedFormat = errors.New("reader: unsupported file format")

// The Reader interface is implemented by all mesh readers.
type Reader interface {
	// Read mesh definitions from a resource.
	Read(*asset.Resource) ([]*scene.Mesh, error)
}

// Read meshes from a local file or http(s) URL.
func ReadMeshes(filename string) ([]*scene.Mesh, error) {
	// Select reader based on file extension
	var reader Reader
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".obj"):
		reader = newWavefrontReader()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return reader.Read(res)
}
