package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStorage(t *testing.T) (*LocalFileStorage, string) {
	t.Helper()

	baseDir := t.TempDir()
	s, err := NewLocalFileStorage(baseDir, zap.NewNop())
	require.NoError(t, err)
	return s, baseDir
}

func TestSaveUploadAndRead(t *testing.T) {
	s, baseDir := newTestStorage(t)

	path, err := s.SaveUpload("doc-1", "contract.pdf", []byte("content"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(baseDir, "doc-1_contract.pdf"), path)

	content, err := s.Read(path)
	require.NoError(t, err)
	require.Equal(t, []byte("content"), content)
}

func TestSaveUploadStripsDirectoryComponents(t *testing.T) {
	s, baseDir := newTestStorage(t)

	path, err := s.SaveUpload("doc-1", "../../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(baseDir, "doc-1_passwd"), path)

	_, err = os.Stat(filepath.Join(baseDir, "doc-1_passwd"))
	require.NoError(t, err)
}

func TestReadRejectsPathOutsideBase(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Read("/etc/passwd")
	require.Error(t, err)
	require.Contains(t, err.Error(), "escapes storage directory")
}

func TestDelete(t *testing.T) {
	s, _ := newTestStorage(t)

	path, err := s.SaveUpload("doc-1", "contract.pdf", []byte("content"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(path))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	// Deleting an already-removed file is not an error.
	require.NoError(t, s.Delete(path))
}
