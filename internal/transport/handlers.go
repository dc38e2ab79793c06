package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/danielpatrickdp/regioncheck/internal/classify"
	"github.com/danielpatrickdp/regioncheck/internal/orchestrator"
	"github.com/danielpatrickdp/regioncheck/internal/region"
	"github.com/danielpatrickdp/regioncheck/internal/render"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/google/uuid"
)

// #region calculate

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	sub, err := parseSubmission(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub.ClientID = s.clientID(w, r)

	out, err := s.orch.Submit(sub)
	if err != nil {
		s.logger.Error().Err(err).Str("client", sub.ClientID).Msg("submit failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !out.OK() {
		status := http.StatusUnprocessableEntity
		if out.Conflict != nil {
			status = http.StatusConflict
		}
		s.writeError(w, status, out.Errors()...)
		return
	}

	entries, err := s.orch.History(sub.ClientID, 0)
	if err != nil {
		s.logger.Error().Err(err).Str("client", sub.ClientID).Msg("history lookup failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, CalculateResponse{
		OK:         true,
		RecordView: recordView(out.Record),
		Replayed:   out.Replayed,
		History:    historyViews(entries),
	})
}

// parseSubmission reads x, y, r and the optional request key from a JSON or
// form body. Anything that is not JSON is treated as a form.
func parseSubmission(r *http.Request) (orchestrator.Submission, error) {
	var sub orchestrator.Submission
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var req calculateRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return sub, err
			}
			return sub, fmt.Errorf("malformed JSON body: %w", err)
		}
		var err error
		if sub.X, err = fieldText("x", req.X); err != nil {
			return sub, err
		}
		if sub.Y, err = fieldText("y", req.Y); err != nil {
			return sub, err
		}
		if sub.R, err = fieldText("r", req.R); err != nil {
			return sub, err
		}
		if sub.RequestKey, err = fieldText("requestId", req.RequestID); err != nil {
			return sub, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return sub, err
			}
			return sub, fmt.Errorf("malformed form body: %w", err)
		}
		sub.X = r.PostForm.Get("x")
		sub.Y = r.PostForm.Get("y")
		sub.R = r.PostForm.Get("r")
		sub.RequestKey = r.PostForm.Get("requestId")
	}

	if sub.RequestKey == "" {
		sub.RequestKey = r.Header.Get(RequestIDHeader)
	}
	return sub, nil
}

// fieldText accepts a JSON string or number and returns its text. Absent
// and null fields become "", which the validator reports as missing.
func fieldText(name string, v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("field %s must be a string or number", name)
	}
}

// #endregion calculate

// #region history

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		clientID := s.clientID(w, r)
		entries, err := s.orch.History(clientID, limit)
		if err != nil {
			s.logger.Error().Err(err).Str("client", clientID).Msg("history lookup failed")
			s.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, HistoryResponse{OK: true, History: historyViews(entries), Now: formatNow(s.now())})

	case http.MethodDelete:
		clientID := s.clientID(w, r)
		n, err := s.orch.ClearHistory(clientID)
		if err != nil {
			s.logger.Error().Err(err).Str("client", clientID).Msg("history clear failed")
			s.writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, HistoryResponse{OK: true, History: []RecordView{}, Removed: n, Now: formatNow(s.now())})

	default:
		w.Header().Set("Allow", "GET, DELETE")
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// #endregion history

// #region region-image

// handleRegionPNG draws Region(r). With x and y it also marks that point,
// coloured by its verdict.
func (s *Server) handleRegionPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	rawR := q.Get("r")
	if rawR == "" {
		rawR = "1"
	}

	v := s.orch.Validator()
	var marks []render.Mark
	var radius float64
	if q.Has("x") || q.Has("y") {
		in, err := v.Validate(q.Get("x"), q.Get("y"), rawR)
		if err != nil {
			s.writeValidation(w, err)
			return
		}
		hit, err := classify.Classify(in.X, in.Y, in.R)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		radius = in.R
		marks = []render.Mark{{Point: region.Point{X: in.X, Y: in.Y}, Hit: hit}}
	} else {
		rv, err := v.ValidateR(rawR)
		if err != nil {
			s.writeValidation(w, err)
			return
		}
		radius = rv
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := s.renderer.EncodePNG(w, region.Build(radius), marks); err != nil {
		// Headers may already be out; log only.
		s.logger.Error().Err(err).Float64("r", radius).Msg("render region")
	}
}

// #endregion region-image

// #region feed

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	clientID := ""
	if c, err := r.Cookie(ClientCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			clientID = id.String()
		}
	}
	if clientID == "" {
		if id, err := uuid.Parse(r.URL.Query().Get("client")); err == nil {
			clientID = id.String()
		}
	}
	if clientID == "" {
		s.writeError(w, http.StatusBadRequest, "missing client id")
		return
	}
	s.hub.serve(w, r, clientID)
}

// #endregion feed

// #region health

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"now":    formatNow(s.now()),
	})
}

// #endregion health

// #region responses

func (s *Server) writeError(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, ErrorResponse{OK: false, Errors: messages, Now: formatNow(s.now())})
}

func (s *Server) writeValidation(w http.ResponseWriter, err error) {
	var ve *validate.ValidationError
	if errors.As(err, &ve) {
		s.writeError(w, http.StatusUnprocessableEntity, ve.Messages()...)
		return
	}
	s.writeError(w, http.StatusBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// #endregion responses
