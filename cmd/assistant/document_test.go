package main

import (
	"os"
	"path/filepath"
	"testing"

	"freewrite-assistant/pkg/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySelection(t *testing.T) {
	tests := []struct {
		spec    string
		want    document.Selection
		wantErr bool
	}{
		{"", document.Selection{Index: 11, Length: 0}, false},
		{"3", document.Selection{Index: 3, Length: 0}, false},
		{"2:4", document.Selection{Index: 2, Length: 4}, false},
		{"x", document.Selection{}, true},
		{"1:y", document.Selection{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			doc := document.FromText("Hello world")
			err := applySelection(doc, tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Selection())
		})
	}
}

func TestSaveKeepsSourceFormat(t *testing.T) {
	dir := t.TempDir()

	docPath = filepath.Join(dir, "note.txt")
	t.Cleanup(func() { docPath = "" })
	require.NoError(t, os.WriteFile(docPath, []byte("Plain text"), 0o644))

	doc, asLexical, err := loadDocument()
	require.NoError(t, err)
	assert.False(t, asLexical)

	doc.InsertText(doc.Length(), " and more")
	require.NoError(t, saveDocument(doc, asLexical))
	data, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, "Plain text and more", string(data))

	require.NoError(t, saveDocument(doc, true))
	doc, asLexical, err = loadDocument()
	require.NoError(t, err)
	assert.True(t, asLexical)
	assert.Equal(t, "Plain text and more", doc.String())
}
