package localization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestGetString(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.json", `{"LOCATION": "Where is the issue?", "CANCEL": "Cancelled."}`)
	writeFile(t, dir, "hi.json", `{"LOCATION": "समस्या कहाँ है?"}`)
	writeFile(t, dir, "notes.txt", "ignored")

	l, err := NewLocalizer(dir)
	require.NoError(t, err)

	assert.Equal(t, "Where is the issue?", l.GetString("en", "LOCATION"))
	assert.Equal(t, "समस्या कहाँ है?", l.GetString("hi", "LOCATION"))

	// Missing in hi falls back to English.
	assert.Equal(t, "Cancelled.", l.GetString("hi", "CANCEL"))

	// Unknown language falls back to English.
	assert.Equal(t, "Where is the issue?", l.GetString("fr", "LOCATION"))

	// Missing everywhere returns the key itself.
	assert.Equal(t, "NO_SUCH_KEY", l.GetString("en", "NO_SUCH_KEY"))
}

func TestNewLocalizerMissingDirectory(t *testing.T) {
	_, err := NewLocalizer(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestNewLocalizerInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.json", "{not json")

	_, err := NewLocalizer(dir)
	assert.Error(t, err)
}

func TestShippedCatalogsParse(t *testing.T) {
	l, err := NewLocalizer(".")
	require.NoError(t, err)

	for _, lang := range []string{"en", "hi", "mr"} {
		for _, key := range []string{
			"COMPLAINT_DESCRIPTION",
			"MEDIA_UPLOAD",
			"LOCATION",
			"CANCEL",
			"SUGGESTION_DESCRIPTION",
			"SUGGESTION_CONFIRMATION",
			"SHORT_CONFIRMATION",
			"STATUS_URL",
		} {
			assert.NotEqual(t, key, l.GetString(lang, key), "%s/%s missing", lang, key)
		}
	}
}
