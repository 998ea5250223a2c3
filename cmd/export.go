package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jsphweid/chordscroll/midi"
	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/sheet"
	"github.com/jsphweid/chordscroll/timeline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <sheet> <out.mid> [bpm]",
	Short: "Exports a chord sheet as midi",
	Long:  `Exports a chord sheet as a midi file with a click track and block chords laid out on the practice timeline.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			panic("Need at least 2 args...")
		}
		var bpm float64
		if len(args) == 3 {
			arg2, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				panic(err)
			}
			bpm = arg2
		}
		export(args[0], args[1], bpm)
	},
}

func export(path string, out string, bpm float64) {
	doc := sheet.Parse(readSheet(path), 0)
	bpm, ts := resolveTempo(doc, bpm, "")

	t, err := timeline.BuildFromDocument(doc, bpm, ts, model.CalcOptions{})
	if err != nil {
		panic("Could not build timeline: " + err.Error())
	}

	data, err := midi.Export(doc, t)
	if err != nil {
		panic("Could not export midi: " + err.Error())
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		panic("Could not write midi file: " + err.Error())
	}
	fmt.Printf("Wrote %v bytes to %v\n", len(data), out)
}
