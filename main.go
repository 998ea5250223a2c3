package main

import (
	"github.com/jsphweid/chordscroll/cmd"
)

func main() {
	cmd.Execute()
}
