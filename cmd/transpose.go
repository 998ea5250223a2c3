package cmd

import (
	"fmt"
	"strconv"

	"github.com/jsphweid/chordscroll/sheet"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(transposeCmd)
}

var transposeCmd = &cobra.Command{
	Use:   "transpose <sheet> <semitones>",
	Short: "Transposes a chord sheet",
	Long:  `Transposes every chord in a chord sheet by the given number of semitones and prints the result.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 2 {
			panic("Need 2 args...")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			panic(err)
		}
		fmt.Print(sheet.TransposeText(readSheet(args[0]), n))
	},
}
