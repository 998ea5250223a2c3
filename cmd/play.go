package cmd

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jsphweid/chordscroll/autoscroll"
	"github.com/jsphweid/chordscroll/session"
	"github.com/jsphweid/chordscroll/sheet"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <sheet> [bpm]",
	Short: "Plays a chord sheet in the terminal",
	Long:  `Plays a chord sheet in the terminal, printing each line as the beat clock reaches it.`,
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
		play(args[0], bpm)
	},
}

func play(path string, bpm float64) {
	sess := session.New(session.Config{
		BPM:    bpm,
		Frames: autoscroll.NewTickerFrames(0),
		// the text is set once and recomputed explicitly, there is no
		// typing stream to debounce
		Debounce: time.Hour,
	})
	defer sess.Close()

	sess.SetText(readSheet(path))
	sess.Recompute()

	t, err := sess.Timeline()
	if err != nil {
		panic("Could not build timeline: " + err.Error())
	}

	display := make(map[string]string, len(t.Elements))
	for _, el := range t.Elements {
		text := sheet.Render(el.Line)
		if el.Lyric != nil {
			text = text + "\n          " + el.Lyric.Text
		}
		display[el.ID] = text
	}

	if doc := sess.Document(); doc.Title() != "" {
		fmt.Printf("%v\n", doc.Title())
	}
	fmt.Printf("%v beats at %v bpm, %.1fs\n\n", t.TotalBeats, t.BPM, t.TotalSeconds)

	var mu sync.Mutex
	last := ""
	sess.OnState(func(st session.State) {
		mu.Lock()
		defer mu.Unlock()
		if st.ActiveElement == "" || st.ActiveElement == last {
			return
		}
		last = st.ActiveElement
		fmt.Printf("bar %3v | %v\n", st.Bar, display[st.ActiveElement])
	})

	if err := sess.Play(context.Background()); err != nil {
		panic("Could not start playback: " + err.Error())
	}
	time.Sleep(time.Duration(t.TotalSeconds*float64(time.Second)) + 200*time.Millisecond)
	sess.Pause()
}
