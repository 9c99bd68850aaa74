package source

import (
	"fmt"

	"github.com/Faultbox/modelbake/pkg/formats"
	"github.com/Faultbox/modelbake/pkg/grf"
	"github.com/Faultbox/modelbake/pkg/scene"
)

// Archive is the read side of a GRF archive.
type Archive interface {
	Read(name string) ([]byte, error)
}

var _ Archive = (*grf.Archive)(nil)

// LoadArchived reads an RSM model out of an archive and converts it.
func LoadArchived(archive Archive, name string, opts Options) (*scene.Graph, error) {
	data, err := archive.Read(name)
	if err != nil {
		return nil, err
	}
	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if opts.Name == "" {
		opts.Name = BaseName(name)
	}
	return FromRSM(rsm, opts)
}
