package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradelock/clock"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/regret"
	"github.com/rustyeddy/tradelock/report"
	"github.com/rustyeddy/tradelock/risk"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// writeJSON encodes data before touching the response, so an encoding
// failure still yields a clean 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"json_encoding_failed"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes standardized error response
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Code:      code,
		Message:   message,
		RequestID: requestID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// violationStatus maps a rejected action onto an HTTP status: state
// conflicts are 409, bad input is 422.
func violationStatus(v *risk.Violation) int {
	switch v.Code {
	case risk.ErrTradeNotFound.Code:
		return http.StatusNotFound
	case risk.ErrNotToday.Code, risk.ErrLocked.Code, risk.ErrPledgeRequired.Code,
		risk.ErrNoPendingLoss.Code, risk.ErrPledgeNotRequired.Code:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// fail writes err as a JSON error.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var v *risk.Violation
	switch {
	case errors.As(err, &v):
		writeError(w, r, violationStatus(v), v.Code, v.Msg)
	case errors.Is(err, journal.ErrEmptyNote):
		writeError(w, r, http.StatusUnprocessableEntity, "EMPTY_NOTE", err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// target reads week, day and row from the path.
func target(r *http.Request) (clock.Bucket, int) {
	vars := mux.Vars(r)
	week, _ := strconv.Atoi(vars["week"])
	day, _ := strconv.Atoi(vars["day"])
	row, _ := strconv.Atoi(vars["row"])
	return clock.Bucket{Week: week, Day: day}, row
}

// NotFound handles 404 responses
func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, r, http.StatusNotFound, "endpoint_not_found", "The requested endpoint does not exist")
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"ai_configured": s.ai != nil && s.ai.IsConfigured(),
		"time":          time.Now().UTC(),
	})
}

func (s *Server) Today(w http.ResponseWriter, r *http.Request) {
	v, err := s.desk.Today()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// AddTrade adds a row to today, or to the bucket in the optional body.
func (s *Server) AddTrade(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Week *int `json:"week"`
		Day  *int `json:"day"`
	}
	if r.ContentLength != 0 && !decode(w, r, &body) {
		return
	}
	v, err := s.desk.Today()
	if err != nil {
		fail(w, r, err)
		return
	}
	b := v.Bucket
	if body.Week != nil {
		b.Week = *body.Week
	}
	if body.Day != nil {
		b.Day = *body.Day
	}

	e, err := s.desk.AddTrade(b)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) SetField(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if !decode(w, r, &body) {
		return
	}
	b, row := target(r)
	if err := s.desk.SetField(b, row, body.Field, body.Value); err != nil {
		fail(w, r, err)
		return
	}
	e, _ := s.desk.Ledger().Entry(b, row)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	b, row := target(r)
	if err := s.desk.DeleteTrade(b, row); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) RequestLoss(w http.ResponseWriter, r *http.Request) {
	b, row := target(r)
	d, err := s.desk.RequestLoss(b, row)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) PendingLoss(w http.ResponseWriter, r *http.Request) {
	d, ok := s.desk.PendingLoss()
	if !ok {
		fail(w, r, risk.ErrNoPendingLoss)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) CancelLoss(w http.ResponseWriter, r *http.Request) {
	s.desk.CancelLoss()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ConfirmLoss(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason    string `json:"reason"`
		Confessed bool   `json:"confessed"`
	}
	if !decode(w, r, &body) {
		return
	}
	res, err := s.desk.ConfirmLoss(body.Reason, body.Confessed)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) Pledge(w http.ResponseWriter, r *http.Request) {
	due, err := s.desk.PledgeRequired()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"required": due,
		"pledge":   s.desk.Policy().Pledge,
	})
}

func (s *Server) SubmitPledge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &body) {
		return
	}
	if err := s.desk.SubmitPledge(body.Text); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.desk.Stats())
}

func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.desk.History())
}

func (s *Server) Notes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.desk.Notes())
}

func (s *Server) AddNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &body) {
		return
	}
	n, err := s.desk.AddNote(body.Text)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ok, err := s.desk.DeleteNote(mux.Vars(r)["id"])
	if err != nil {
		fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "NOTE_NOT_FOUND", "no note with that id")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeWall(w http.ResponseWriter, wall regret.Wall) {
	status := http.StatusOK
	if wall.Error != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, wall)
}

func (s *Server) Regret(w http.ResponseWriter, r *http.Request) {
	writeWall(w, s.desk.Regret(r.Context(), nil))
}

func (s *Server) RefreshRegret(w http.ResponseWriter, r *http.Request) {
	writeWall(w, s.desk.RefreshRegret(r.Context(), nil))
}

func (s *Server) Reaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type   journal.TradeType `json:"type"`
		Amount string            `json:"amount"`
		Reason string            `json:"reason"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Type != journal.Profit && body.Type != journal.Loss {
		fail(w, r, risk.ErrInvalidType)
		return
	}
	if !journal.ValidAmount(body.Amount) {
		fail(w, r, risk.ErrInvalidAmount)
		return
	}
	msg := s.ai.Reaction(r.Context(), body.Type, journal.ParseAmount(body.Amount), body.Reason)
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	v, err := s.desk.Today()
	if err != nil {
		fail(w, r, err)
		return
	}
	msg := s.ai.DailySummary(r.Context(), v.Trades, v.Total)
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "net": v.Total})
}

func (s *Server) PopUp(w http.ResponseWriter, r *http.Request) {
	v, err := s.desk.Today()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": s.ai.PopUp(v.Trades, v.Total, v.Losses)})
}

func (s *Server) Quote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"quote": s.ai.Quote()})
}

func (s *Server) SetAPIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if !decode(w, r, &body) {
		return
	}
	if err := s.desk.SetAPIKey(body.Key); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ai_configured": s.ai != nil && s.ai.IsConfigured()})
}

func (s *Server) Notices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.Drain())
}

func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	if err := s.desk.Reset(); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report renders the whole journal as an HTML page.
func (s *Server) Report(w http.ResponseWriter, r *http.Request) {
	v, err := s.desk.Today()
	if err != nil {
		fail(w, r, err)
		return
	}
	data := report.Data{
		Generated: time.Now(),
		Today:     v,
		History:   s.desk.History(),
		Stats:     s.desk.Stats(),
		Notes:     s.desk.Notes(),
	}
	if r.URL.Query().Get("regret") == "1" {
		wall := s.desk.Regret(r.Context(), nil)
		data.Wall = &wall
	}
	page, err := report.HTML(report.Markdown(data))
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="journal.csv"`)
	if err := s.desk.ExportCSV(w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("csv export failed")
	}
}
