package uploads

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader - сигнатура PNG, достаточная для определения типа.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestNewOrderDir(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }

	dir, err := s.NewOrderDir("Ana Maria")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dir, "Ana_Maria_20240501_103000_"), dir)
	assert.Len(t, dir, len("Ana_Maria_20240501_103000_")+8)

	info, err := os.Stat(s.Path(dir))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveStreamsAndNeverOverwrites(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	dir, err := s.NewOrderDir("x")
	require.NoError(t, err)

	big := bytes.Repeat([]byte("a"), 3*1024*1024+17)
	rel, err := s.Save(dir, "../../etc/My Design.PNG", bytes.NewReader(big))
	require.NoError(t, err)
	assert.Equal(t, dir+"/My_Design.png", rel)

	got, err := os.ReadFile(s.Path(rel))
	require.NoError(t, err)
	assert.Equal(t, len(big), len(got))

	rel2, err := s.Save(dir, "My Design.png", strings.NewReader("second"))
	require.NoError(t, err)
	assert.Equal(t, dir+"/My_Design_1.png", rel2)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestSaveRemovesPartialFile(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	dir, err := s.NewOrderDir("x")
	require.NoError(t, err)

	_, err = s.Save(dir, "a.png", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	entries, err := os.ReadDir(s.Path(dir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDetectImage(t *testing.T) {
	r := bytes.NewReader(append(append([]byte{}, pngHeader...), make([]byte, 64)...))
	mime, err := DetectImage(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Zero(t, pos)

	_, err = DetectImage(strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestRemoveDirRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	s, err := NewStorage(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	assert.Error(t, s.RemoveDir("../"))
	assert.Error(t, s.RemoveDir(""))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://shop.md/uploads/a/b.png", PublicURL("https://shop.md/", "a/b.png"))
}
