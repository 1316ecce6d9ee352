package main

import (
	"fmt"
	"sort"

	"freewrite-assistant/internal/dispatcher"
	"freewrite-assistant/pkg/protocol"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	rateMode string
	rateText string
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Score the document against a rubric",
	Long: `Score the document against a rubric (vspice or limmy) and print the
score and feedback of every category.`,
	RunE: runRate,
}

func init() {
	rateCmd.Flags().StringVarP(&rateMode, "mode", "m", string(protocol.ModeVSpice), "rubric: vspice or limmy")
	rateCmd.Flags().StringVarP(&rateText, "text", "t", "", "rate this text instead of the document")
	rootCmd.AddCommand(rateCmd)
}

func runRate(cmd *cobra.Command, args []string) error {
	doc, _, err := loadDocument()
	if err != nil {
		return err
	}

	out, err := runSession(cmd.Context(), doc, dispatcher.Rate{Mode: protocol.Mode(rateMode), Text: rateText})
	if err != nil {
		return err
	}
	if out.Err != nil {
		return out.Err
	}
	if out.Rating == nil {
		return fmt.Errorf("the rating could not be read")
	}

	categories := make([]string, 0, len(out.Rating.Scores))
	for category := range out.Rating.Scores {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	w := cmd.OutOrStdout()
	for _, category := range categories {
		fmt.Fprintf(w, "%-14s %3d  %s\n", category, out.Rating.Scores[category], out.Rating.Feedback[category])
	}
	color.New(color.Bold).Fprintf(w, "%-14s %3d\n", "overall", out.Rating.OverallScore)
	return nil
}
