package ingest

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Container is the kind of binary a bundle was read from.
type Container string

const (
	ContainerUnknown    Container = "unknown"
	ContainerClass      Container = "class"
	ContainerArchive    Container = "archive"
	ContainerCompressed Container = "compressed"
	ContainerPack200    Container = "pack200"
)

// Analyzable reports whether classes can be read from the container.
func (c Container) Analyzable() bool {
	switch c {
	case ContainerClass, ContainerArchive, ContainerCompressed, ContainerPack200:
		return true
	}
	return false
}

// SupportsFilters reports whether class filters can be applied to the
// contents of the container.
func (c Container) SupportsFilters() bool {
	return c == ContainerClass || c == ContainerArchive
}

var (
	magicClass   = []byte{0xCA, 0xFE, 0xBA, 0xBE}
	magicZip     = []byte{'P', 'K', 0x03, 0x04}
	magicGzip    = []byte{0x1F, 0x8B}
	magicPack200 = []byte{0xCA, 0xFE, 0xD0, 0x0D}
)

// DetectContainer identifies a container by its leading magic bytes.
// Short or unrecognized input yields ContainerUnknown.
func DetectContainer(r io.Reader) (Container, error) {
	head, err := bufio.NewReader(r).Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return ContainerUnknown, errors.Wrap(err, "failed to read header")
	}
	switch {
	case bytes.HasPrefix(head, magicClass):
		return ContainerClass, nil
	case bytes.HasPrefix(head, magicPack200):
		return ContainerPack200, nil
	case bytes.HasPrefix(head, magicZip):
		return ContainerArchive, nil
	case bytes.HasPrefix(head, magicGzip):
		return ContainerCompressed, nil
	default:
		return ContainerUnknown, nil
	}
}

// DetectFile opens path and identifies its container kind.
func DetectFile(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return ContainerUnknown, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return DetectContainer(f)
}

func underAny(path string, roots []string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	for _, root := range roots {
		root = filepath.ToSlash(filepath.Clean(root))
		if path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
	}
	return false
}
