package transport

import (
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/eval"
	"github.com/danielpatrickdp/regioncheck/internal/history"
)

// ClientCookie names the cookie that scopes a browser's history.
const ClientCookie = "regioncheck_client"

// RequestIDHeader carries the double-submit key when the body does not.
const RequestIDHeader = "X-Request-ID"

// #region wire-types

// RecordView is the wire form of an evaluation record. The same shape is
// used in calculate responses, history listings and the live feed.
type RecordView struct {
	ID             string  `json:"id"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	R              float64 `json:"r"`
	Hit            bool    `json:"hit"`
	Shape          string  `json:"shape,omitempty"`
	Now            string  `json:"now"`
	DurationMicros float64 `json:"durationMicros"`
}

// CalculateResponse is the 200 body of POST /calculate.
type CalculateResponse struct {
	OK bool `json:"ok"`
	RecordView
	Replayed bool         `json:"replayed,omitempty"`
	History  []RecordView `json:"history"`
}

// HistoryResponse is the body of GET and DELETE /history.
type HistoryResponse struct {
	OK      bool         `json:"ok"`
	History []RecordView `json:"history"`
	Removed int64        `json:"removed,omitempty"`
	Now     string       `json:"now"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
	Now    string   `json:"now"`
}

// FeedMessage is pushed to a client's websocket connections.
type FeedMessage struct {
	Type   string     `json:"type"` // "record"
	Record RecordView `json:"record"`
}

// calculateRequest is the JSON body of POST /calculate. Fields may be JSON
// strings or numbers.
type calculateRequest struct {
	X         interface{} `json:"x"`
	Y         interface{} `json:"y"`
	R         interface{} `json:"r"`
	RequestID interface{} `json:"requestId"`
}

// #endregion wire-types

// #region conversions

func formatNow(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func recordView(rec eval.Record) RecordView {
	return RecordView{
		ID:             rec.ID,
		X:              rec.Point.X,
		Y:              rec.Point.Y,
		R:              rec.Radius,
		Hit:            rec.Hit,
		Shape:          string(rec.Shape),
		Now:            formatNow(rec.EvaluatedAt),
		DurationMicros: rec.DurationMicros(),
	}
}

func historyViews(entries []history.Entry) []RecordView {
	out := make([]RecordView, len(entries))
	for i, e := range entries {
		out[i] = recordView(e.Record)
	}
	return out
}

// #endregion conversions
