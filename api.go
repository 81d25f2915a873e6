package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// writeJSON renders v with the standard headers and returns the byte count
// for serve logging.
func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	return w.Write(data)
}

// writeError maps engine errors onto the API taxonomy: unknown ids and empty
// banks are 404, bad arguments are 400.
func writeError(cfg *Config, w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errNotFound) || errors.Is(err, errNoQuestions) {
		status = http.StatusNotFound
	}

	_, _ = writeJSON(cfg, w, status, map[string]string{"error": err.Error()})
}

// decodeBody parses a JSON request body into dst. An empty body is accepted
// and leaves dst zeroed, for commands whose arguments are all optional.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func apiState(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		written, err := writeJSON(cfg, w, http.StatusOK, engine.CurrentState())
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Board state (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func apiQuestions(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_, err := writeJSON(cfg, w, http.StatusOK, map[string]any{
			"questions": engine.ListQuestions(),
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiSelect(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body struct {
			ID *int `json:"id"`
		}
		if err := decodeBody(r, &body); err != nil || body.ID == nil {
			_, _ = writeJSON(cfg, w, http.StatusBadRequest, map[string]string{"error": "id required"})
			return
		}

		answer, newly, roundScore, err := engine.SelectAnswer(*body.ID)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		logf(cfg, "FEUD: %s revealed answer %d (%q, %d points)", realIP(r), answer.ID, answer.Text, answer.Points)

		_, err = writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":             true,
			"selected":       answer,
			"newly_revealed": newly,
			"roundScore":     roundScore,
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiReset(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		engine.ResetBoard()

		logf(cfg, "FEUD: %s reset the board", realIP(r))

		_, err := writeJSON(cfg, w, http.StatusOK, map[string]any{"ok": true})
		if err != nil {
			errs <- err
		}
	}
}

func apiNewQuestion(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body struct {
			QuestionID *int `json:"question_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			_, _ = writeJSON(cfg, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		questionID, err := engine.NewQuestion(body.QuestionID)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		logf(cfg, "FEUD: %s loaded question %d", realIP(r), questionID)

		_, err = writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":          true,
			"question_id": questionID,
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiNextRound(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		questionID, awarded, team1Score, team2Score, err := engine.NextRound()
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		logf(cfg, "FEUD: %s advanced to question %d (%d points banked)", realIP(r), questionID, awarded)

		_, err = writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":             true,
			"question_id":    questionID,
			"awarded_points": awarded,
			"team1Score":     team1Score,
			"team2Score":     team2Score,
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiActive(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body struct {
			Team *int `json:"team"`
		}
		if err := decodeBody(r, &body); err != nil || body.Team == nil {
			_, _ = writeJSON(cfg, w, http.StatusBadRequest, map[string]string{"error": errInvalidTeam.Error()})
			return
		}

		active, err := engine.SetActiveTeam(*body.Team)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		_, err = writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":     true,
			"active": active,
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiAward(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		awarded := engine.Award()

		logf(cfg, "FEUD: %s awarded %d points", realIP(r), awarded)

		_, err := writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":      true,
			"awarded": awarded,
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiAwardSteal(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		awarded, to := engine.AwardSteal()

		logf(cfg, "FEUD: %s awarded %d stolen points to team %d", realIP(r), awarded, to)

		_, err := writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":      true,
			"awarded": awarded,
			"to":      to,
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiStrike(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		strikes := engine.AddStrike()

		_, err := writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":      true,
			"strikes": strikes,
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiClearStrikes(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		strikes := engine.ClearStrikes()

		_, err := writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":      true,
			"strikes": strikes,
		})
		if err != nil {
			errs <- err
		}
	}
}

func apiSetScore(cfg *Config, engine *Engine, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body struct {
			Team  *int `json:"team"`
			Score *int `json:"score"`
		}
		if err := decodeBody(r, &body); err != nil || body.Score == nil {
			_, _ = writeJSON(cfg, w, http.StatusBadRequest, map[string]string{"error": "score must be an integer"})
			return
		}
		if body.Team == nil {
			_, _ = writeJSON(cfg, w, http.StatusBadRequest, map[string]string{"error": errInvalidTeam.Error()})
			return
		}

		team1Score, team2Score, err := engine.SetTeamScore(*body.Team, *body.Score)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		_, err = writeJSON(cfg, w, http.StatusOK, map[string]any{
			"ok":         true,
			"team1Score": team1Score,
			"team2Score": team2Score,
		})
		if err != nil {
			errs <- err
		}
	}
}

// registerAPI wires the judge/board command surface under $prefix/api.
func registerAPI(cfg *Config, engine *Engine, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/api/state", apiState(cfg, engine, errs))
	mux.GET(cfg.prefix+"/api/questions", apiQuestions(cfg, engine, errs))

	mux.POST(cfg.prefix+"/api/select", apiSelect(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/reset", apiReset(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/new_question", apiNewQuestion(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/next_round", apiNextRound(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/active", apiActive(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/award", apiAward(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/award_steal", apiAwardSteal(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/strike", apiStrike(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/clear_strikes", apiClearStrikes(cfg, engine, errs))
	mux.POST(cfg.prefix+"/api/set_score", apiSetScore(cfg, engine, errs))
}
