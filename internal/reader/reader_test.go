package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestReadFile_PlainText(t *testing.T) {
	path := writeTemp(t, "interview.txt", []byte("И: Привет\nЭ: Здравствуйте"))

	result, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "txt", result.Format)
	assert.Contains(t, result.Text, "Здравствуйте")
}

func TestReadFile_Markdown(t *testing.T) {
	path := writeTemp(t, "notes.md", []byte("# Интервью\n\nтекст"))

	result, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "md", result.Format)
}

func TestReadFile_StripsBOM(t *testing.T) {
	path := writeTemp(t, "bom.txt", append([]byte{0xEF, 0xBB, 0xBF}, []byte("текст")...))

	result, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "текст", result.Text)
}

func TestReadFile_Windows1251Fallback(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte("Расшифровка интервью"))
	require.NoError(t, err)
	path := writeTemp(t, "legacy.txt", encoded)

	result, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Расшифровка интервью", result.Text)
}

func TestReadFile_UnsupportedFormat(t *testing.T) {
	path := writeTemp(t, "audio.mp3", []byte("binary"))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".mp3")
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestNormalizeText(t *testing.T) {
	in := "строка один\r\n\r\n\r\n\r\nстрока два\r\n"
	out := NormalizeText(in)
	assert.Equal(t, "строка один\n\nстрока два\n", out)
}

func TestNormalizeText_TrimsEdges(t *testing.T) {
	out := NormalizeText("\n\n  текст  \n\n\n")
	assert.Equal(t, "текст\n", out)
}
