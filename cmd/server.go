package cmd

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jsphweid/chordscroll/midi"
	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/sheet"
	"github.com/jsphweid/chordscroll/timeline"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	reqBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Could not read request body: "+err.Error())
		return false
	}
	if err := json.Unmarshal(reqBody, into); err != nil {
		writeErr(w, http.StatusBadRequest, "Could not unmarshal request body: "+err.Error())
		return false
	}
	return true
}

func buildFromRequest(w http.ResponseWriter, input model.TimelineRequest) (*model.Document, *model.SongTimeline, bool) {
	doc := sheet.Parse(input.Text, input.Transpose)
	bpm, ts := resolveTempo(doc, input.BPM, input.Time)

	var opts model.CalcOptions
	if input.Options != nil {
		opts = *input.Options
	}
	t, err := timeline.BuildFromDocument(doc, bpm, ts, opts)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
		return nil, nil, false
	}
	return doc, t, true
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func HandleParse(w http.ResponseWriter, r *http.Request) {
	var input model.ParseRequest
	if !decodeBody(w, r, &input) {
		return
	}
	doc := sheet.Parse(input.Text, input.Transpose)
	writeJSON(w, http.StatusOK, model.NewDocumentPayload(doc))
}

func HandleTimeline(w http.ResponseWriter, r *http.Request) {
	var input model.TimelineRequest
	if !decodeBody(w, r, &input) {
		return
	}
	_, t, ok := buildFromRequest(w, input)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.NewTimelinePayload(t))
}

func HandleTranspose(w http.ResponseWriter, r *http.Request) {
	var input model.TransposeRequest
	if !decodeBody(w, r, &input) {
		return
	}
	writeJSON(w, http.StatusOK, model.TransposeResponse{Text: sheet.TransposeText(input.Text, input.Semitones)})
}

func HandleExport(w http.ResponseWriter, r *http.Request) {
	var input model.TimelineRequest
	if !decodeBody(w, r, &input) {
		return
	}
	doc, t, ok := buildFromRequest(w, input)
	if !ok {
		return
	}
	data, err := midi.Export(doc, t)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="song.mid"`)
	w.Write(data)
}
