package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"freewrite-assistant/pkg/document"
	"freewrite-assistant/pkg/lexical"
)

// loadDocument reads the --doc file. A missing flag yields an empty document.
func loadDocument() (*document.Memory, bool, error) {
	if docPath == "" {
		return document.NewMemory(), false, nil
	}
	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read document: %w", err)
	}
	content := string(data)
	doc, err := document.Load(content)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, lexical.LooksLikeLexical(content), nil
}

// saveDocument writes doc back to the --doc file in the format it was read in.
func saveDocument(doc *document.Memory, asLexical bool) error {
	if docPath == "" {
		return fmt.Errorf("--write needs --doc")
	}
	data := []byte(doc.String())
	if asLexical {
		var err error
		data, err = json.MarshalIndent(document.ToLexical(doc), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
	}
	return os.WriteFile(docPath, data, 0o644)
}

// applySelection parses "index" or "index:length" and selects it.
func applySelection(doc *document.Memory, spec string) error {
	if spec == "" {
		return nil
	}
	indexStr, lengthStr, hasLength := strings.Cut(spec, ":")
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return fmt.Errorf("invalid selection %q: %w", spec, err)
	}
	length := 0
	if hasLength {
		if length, err = strconv.Atoi(lengthStr); err != nil {
			return fmt.Errorf("invalid selection %q: %w", spec, err)
		}
	}
	doc.SetSelection(index, length)
	return nil
}
