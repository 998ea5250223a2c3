package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/chordscroll/constants"
	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/sheet"
	"github.com/jsphweid/chordscroll/timeline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(timelineCmd)
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <sheet> [bpm]",
	Short: "Builds a practice timeline",
	Long:  `Builds a practice timeline from a chord sheet and prints every element with its beat span.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			panic("Need at least 1 arg...")
		}
		var bpm float64
		if len(args) == 2 {
			arg1, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				panic(err)
			}
			bpm = arg1
		}
		printTimeline(args[0], bpm)
	},
}

// resolveTempo fills in tempo and meter from the song's own directives when
// the caller did not pick them. A zero bpm means "use the song's", a bad or
// missing directive falls back to the defaults.
func resolveTempo(doc *model.Document, bpm float64, timeStr string) (float64, model.TimeSignature) {
	if bpm == 0 {
		if t, ok := doc.Tempo(); ok {
			bpm = t
		} else {
			bpm = constants.DefaultBPM
		}
	}
	var ts model.TimeSignature
	if timeStr != "" {
		ts = model.ParseTimeSignature(timeStr)
	} else if dt, ok := doc.Time(); ok {
		ts = dt
	} else {
		ts = model.ParseTimeSignature(constants.DefaultTime)
	}
	return bpm, ts
}

func printTimeline(path string, bpm float64) {
	doc := sheet.Parse(readSheet(path), 0)
	bpm, ts := resolveTempo(doc, bpm, "")

	t, err := timeline.BuildFromDocument(doc, bpm, ts, model.CalcOptions{})
	if err != nil {
		panic("Could not build timeline: " + err.Error())
	}

	fmt.Printf("%v beats over %v bars, %.1fs at %v bpm in %v\n", t.TotalBeats, t.TotalBars, t.TotalSeconds, t.BPM, ts)
	for _, el := range t.Elements {
		text := strings.ReplaceAll(sheet.Render(el.Line), "\n", "  ")
		fmt.Printf("%8.1f %8.1f  %-12v %v\n", el.StartBeat, el.EndBeat, el.Kind, text)
	}
}
