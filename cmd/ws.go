package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jsphweid/chordscroll/autoscroll"
	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sessionConn funnels every outbound event through one write loop, since
// the websocket allows a single concurrent writer.
type sessionConn struct {
	conn   *websocket.Conn
	events chan model.SessionEvent
	done   chan struct{}
	once   sync.Once
}

func (c *sessionConn) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *sessionConn) push(evt model.SessionEvent) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.events <- evt:
	case <-c.done:
	}
}

func (c *sessionConn) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case evt := <-c.events:
			if err := c.conn.WriteJSON(evt); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func stateEvent(st session.State, offset float64) model.SessionEvent {
	p := model.SessionStatePayload{
		Beat:             st.Beat,
		Bar:              st.Bar,
		BeatInBar:        st.BeatInBar,
		Running:          st.Running,
		Seconds:          st.Seconds,
		ActiveElement:    st.ActiveElement,
		ActiveChordIndex: st.ActiveChord,
		Fallback:         st.Fallback,
		TotalBeats:       st.TotalBeats,
		TotalSeconds:     st.TotalSeconds,
	}
	if st.Err != nil {
		p.Error = st.Err.Error()
	}
	return model.SessionEvent{Type: "state", State: &p, Offset: offset}
}

// HandleSession runs one live practice session per socket. The client
// streams edits and transport commands, the server pushes state on every
// beat plus a fresh document and timeline after each recompute. The first
// play is gated on the client's "unlock" ack, the browser-gesture analog.
func HandleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	slog.Debug("session opened", "remote", r.RemoteAddr)
	defer slog.Debug("session closed", "remote", r.RemoteAddr)

	c := &sessionConn{
		conn:   conn,
		events: make(chan model.SessionEvent, 64),
		done:   make(chan struct{}),
	}
	defer c.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	unlocked := make(chan struct{})
	var unlockOnce sync.Once
	unlock := func(ctx context.Context) error {
		select {
		case <-unlocked:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	view := autoscroll.NewOffsetViewport(0)
	sess := session.New(newSessionConfig(view, unlock))
	defer sess.Close()

	var mu sync.Mutex
	var lastDoc *model.Document
	var lastTimeline *model.SongTimeline
	sess.OnState(func(st session.State) {
		doc := sess.Document()
		t, buildErr := sess.Timeline()

		mu.Lock()
		changed := doc != lastDoc || t != lastTimeline
		lastDoc, lastTimeline = doc, t
		mu.Unlock()

		if changed {
			evt := model.SessionEvent{Type: "timeline"}
			if doc != nil {
				dp := model.NewDocumentPayload(doc)
				evt.Document = &dp
			}
			if t != nil {
				tp := model.NewTimelinePayload(t)
				evt.Timeline = &tp
			} else if buildErr != nil {
				evt.Error = buildErr.Error()
			}
			c.push(evt)
		}
		c.push(stateEvent(st, sess.Offset()))
	})

	go c.writeLoop()
	c.push(stateEvent(sess.Snapshot(), 0))

	for {
		var cmd model.SessionCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Op {
		case "text":
			sess.SetText(cmd.Text)
		case "bpm":
			sess.SetBPM(cmd.BPM)
		case "time":
			// an empty time falls back to the song's own directive
			if cmd.Time == "" {
				sess.SetTimeSignature(model.TimeSignature{})
			} else {
				sess.SetTimeSignature(model.ParseTimeSignature(cmd.Time))
			}
		case "options":
			if cmd.Options != nil {
				sess.SetOptions(*cmd.Options)
			}
		case "recompute":
			sess.Recompute()
		case "play":
			// Play blocks until the unlock ack arrives, so it cannot run
			// on the read loop that receives the ack.
			go func() {
				if err := sess.Play(ctx); err != nil {
					c.push(model.SessionEvent{Type: "error", Error: err.Error()})
				}
			}()
		case "pause":
			sess.Pause()
		case "reset":
			sess.Reset()
		case "seek":
			sess.SeekToBeat(cmd.Beat)
		case "seek_element":
			sess.SeekToElement(cmd.ElementID, cmd.ChordIndex)
		case "override":
			sess.SetOverride(cmd.ElementID, cmd.Beats)
		case "clear_override":
			sess.ClearOverride(cmd.ElementID)
		case "positions":
			sess.SetPositions(cmd.Positions)
		case "position":
			sess.SetPosition(cmd.ElementID, cmd.Offset)
		case "viewport":
			view.SetHeight(cmd.Height)
			view.SetOffset(cmd.Offset)
		case "autoscroll":
			sess.SetAutoscroll(cmd.Enabled)
		case "retry":
			sess.Retry()
		case "unlock":
			unlockOnce.Do(func() { close(unlocked) })
		default:
			c.push(model.SessionEvent{Type: "error", Error: "Unknown op: " + cmd.Op})
		}
	}
}
