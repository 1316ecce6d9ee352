package main

import (
	"encoding/json"
	"fmt"

	"freewrite-assistant/pkg/document"

	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert the document to Markdown, Lexical JSON or plain text",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "markdown, lexical or text")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	doc, _, err := loadDocument()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch exportFormat {
	case "markdown", "md":
		fmt.Fprint(w, document.Markdown(doc))
	case "lexical", "json":
		data, err := json.MarshalIndent(document.ToLexical(doc), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "text", "txt":
		fmt.Fprintln(w, doc.String())
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}
	return nil
}
