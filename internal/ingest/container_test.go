package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectContainer(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Container
	}{
		{"class file", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x34}, ContainerClass},
		{"zip archive", []byte("PK\x03\x04rest"), ContainerArchive},
		{"gzip", []byte{0x1F, 0x8B, 0x08, 0x00}, ContainerCompressed},
		{"pack200", []byte{0xCA, 0xFE, 0xD0, 0x0D, 0x07}, ContainerPack200},
		{"text", []byte("hello"), ContainerUnknown},
		{"short", []byte{0x1F}, ContainerUnknown},
		{"empty", nil, ContainerUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectContainer(bytes.NewReader(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Foo.class")
	require.NoError(t, os.WriteFile(path, []byte{0xCA, 0xFE, 0xBA, 0xBE}, 0644))

	got, err := DetectFile(path)
	require.NoError(t, err)
	assert.Equal(t, ContainerClass, got)

	got, err = DetectFile(filepath.Join(t.TempDir(), "missing.jar"))
	assert.Error(t, err)
	assert.Equal(t, ContainerUnknown, got)
}

func TestContainer_SupportsFilters(t *testing.T) {
	assert.True(t, ContainerClass.SupportsFilters())
	assert.True(t, ContainerArchive.SupportsFilters())
	assert.False(t, ContainerCompressed.SupportsFilters())
	assert.False(t, ContainerPack200.SupportsFilters())
	assert.False(t, ContainerUnknown.SupportsFilters())
}

func TestContainer_Analyzable(t *testing.T) {
	for _, c := range []Container{ContainerClass, ContainerArchive, ContainerCompressed, ContainerPack200} {
		assert.True(t, c.Analyzable(), c)
	}
	assert.False(t, ContainerUnknown.Analyzable())
	assert.False(t, Container("tarball").Analyzable())
}
