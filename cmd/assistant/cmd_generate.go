package main

import (
	"fmt"

	"freewrite-assistant/internal/dispatcher"
	"freewrite-assistant/pkg/document"
	"freewrite-assistant/pkg/protocol"

	"github.com/spf13/cobra"
)

var (
	generateMode      string
	generateText      string
	generateSelection string
	generateWrite     bool
	generateMarkdown  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Stream generated text into the document",
	Long: `Stream generated text into the document.

Modes:
  sentence, paragraph  continue the text before the cursor
  headline             add a heading at the top of the document
  flowery, transform   rewrite the selection (--select index:length)
  generate             write new text from --text`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateMode, "mode", "m", string(protocol.ModeSentence), "generation mode")
	generateCmd.Flags().StringVarP(&generateText, "text", "t", "", "explicit input text")
	generateCmd.Flags().StringVarP(&generateSelection, "select", "s", "", "cursor or selection as index[:length] (default: end of document)")
	generateCmd.Flags().BoolVarP(&generateWrite, "write", "w", false, "write the result back to --doc")
	generateCmd.Flags().BoolVar(&generateMarkdown, "markdown", false, "print the result as Markdown")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	mode, ok := protocol.ParseMode(generateMode)
	if !ok {
		return fmt.Errorf("unknown mode %q", generateMode)
	}

	doc, asLexical, err := loadDocument()
	if err != nil {
		return err
	}
	if err := applySelection(doc, generateSelection); err != nil {
		return err
	}

	out, err := runSession(cmd.Context(), doc, dispatcher.Snippet{Mode: mode, Text: generateText})
	if err != nil {
		return err
	}
	return finishDocument(cmd, doc, out, asLexical, generateWrite, generateMarkdown)
}

func finishDocument(cmd *cobra.Command, doc *document.Memory, out *outcome, asLexical, write, markdown bool) error {
	if out.Err != nil {
		return out.Err
	}
	if write {
		return saveDocument(doc, asLexical)
	}
	if markdown {
		fmt.Fprint(cmd.OutOrStdout(), document.Markdown(doc))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Text)
	return nil
}
