package main

import (
	"freewrite-assistant/internal/dispatcher"

	"github.com/spf13/cobra"
)

var (
	draftText  string
	draftWrite bool
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Seed the thread with a draft",
	Long:  `Send the document (or --text) as the thread's draft and stream the reply into the document.`,
	RunE:  runDraft,
}

func init() {
	draftCmd.Flags().StringVarP(&draftText, "text", "t", "", "draft text (default: the whole document)")
	draftCmd.Flags().BoolVarP(&draftWrite, "write", "w", false, "write the result back to --doc")
	rootCmd.AddCommand(draftCmd)
}

func runDraft(cmd *cobra.Command, args []string) error {
	doc, asLexical, err := loadDocument()
	if err != nil {
		return err
	}

	out, err := runSession(cmd.Context(), doc, dispatcher.Draft{Text: draftText})
	if err != nil {
		return err
	}
	return finishDocument(cmd, doc, out, asLexical, draftWrite, false)
}
