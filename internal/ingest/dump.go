package ingest

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/zjy-dev/covalgebra/internal/logger"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// Dump is an analysis written to disk by the external analyzer. It
// implements Analyzer.
type Dump struct {
	BundleList  []Bundle      `json:"bundles" validate:"required,dive"`
	SessionList []SessionData `json:"sessions" validate:"required,dive"`
}

// Bundles implements Analyzer.
func (d *Dump) Bundles() ([]Bundle, error) {
	return d.BundleList, nil
}

// Sessions implements Analyzer.
func (d *Dump) Sessions() ([]SessionData, error) {
	return d.SessionList, nil
}

// LoadDump reads an analysis dump. Bundles without a container kind are
// identified by the magic bytes of their file, resolved relative to the
// dump's directory.
func LoadDump(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open analysis dump")
	}
	defer f.Close()

	d, err := DecodeDump(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	d.resolveContainers(filepath.Dir(path))
	return d, nil
}

// DecodeDump reads and validates a dump without touching the filesystem.
func DecodeDump(rd io.Reader) (*Dump, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read analysis dump")
	}
	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrapf(ErrMalformedDump, "invalid JSON: %v", err)
	}
	if err := validate.Struct(&d); err != nil {
		return nil, errors.Wrapf(ErrMalformedDump, "%v", err)
	}
	return &d, nil
}

func (d *Dump) resolveContainers(baseDir string) {
	log := logger.WithComponent("ingest")
	for i := range d.BundleList {
		b := &d.BundleList[i]
		if b.Container != "" {
			continue
		}
		path := b.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		c, err := DetectFile(path)
		if err != nil {
			log.Warnf("cannot identify %s: %v", b.Path, err)
		}
		b.Container = c
	}
}
