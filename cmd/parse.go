package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/sheet"
	"github.com/jsphweid/chordscroll/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <sheet> [semitones]",
	Short: "Parses a chord sheet",
	Long:  `Parses a chord sheet and prints its directives and classified lines, optionally transposed.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			panic("Need at least 1 arg...")
		}
		var semitones int
		if len(args) == 2 {
			arg1, err := strconv.Atoi(args[1])
			if err != nil {
				panic(err)
			}
			semitones = arg1
		}
		parse(args[0], semitones)
	},
}

func readSheet(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("Could not read chord sheet: " + err.Error())
	}
	return string(data)
}

func parse(path string, semitones int) {
	doc := sheet.Parse(readSheet(path), semitones)

	keys := util.GetKeys(doc.Directives)
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%v: %v\n", key, doc.Directives[key])
	}
	for _, line := range doc.Lines {
		p := model.NewLinePayload(line)
		fmt.Printf("%-12v %v\n", p.Kind, sheet.Render(line))
	}
}
