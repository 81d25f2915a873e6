package main

import (
	"sync"
)

// QuestionSummary is the spoiler-free projection used by the question list:
// no answers, no point values.
type QuestionSummary struct {
	ID          int    `json:"id"`
	Prompt      string `json:"question"`
	AnswerCount int    `json:"answer_count"`
}

// Engine is the sole mutation gateway for the board. Every command runs
// under one mutex, mutates all-or-nothing, and on success hands a snapshot
// to notify for fan-out. Handlers never touch GameState directly.
type Engine struct {
	mu     sync.Mutex
	state  GameState
	cfg    *Config
	notify func(GameState)
}

// newEngine builds the process-wide engine, seeding the board from the first
// catalog question or the built-in default when the bank is unusable.
func newEngine(cfg *Config) *Engine {
	e := &Engine{cfg: cfg}

	first := defaultQuestion()
	if cat := e.catalog(); cat != nil && cat.Len() > 0 {
		first = cat.Questions()[0]
	}
	e.state = newGameState(first, cfg.team1, cfg.team2)

	return e
}

// catalog re-reads the question bank from disk, tolerating live edits to the
// file. A missing or malformed bank is logged and reported as nil; callers
// degrade to the default question rather than failing the command.
func (e *Engine) catalog() *Catalog {
	cat, err := loadCatalog(e.cfg.questions)
	if err != nil {
		logf(e.cfg, "FEUD: Question bank unavailable: %v", err)
		return nil
	}
	return cat
}

// broadcast pushes a snapshot to the hub. Callers hold e.mu, so snapshots
// reach the hub in mutation order and subscribers converge on the final
// state. Delivery is fire-and-forget; a failed subscriber never fails the
// command that triggered the push.
func (e *Engine) broadcast(snapshot GameState) {
	if e.notify != nil {
		e.notify(snapshot)
	}
}

// CurrentState returns a consistent deep-copied snapshot. Never broadcasts.
func (e *Engine) CurrentState() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.clone()
}

// ListQuestions projects the catalog for the judge console. When the bank is
// unavailable only the built-in default is advertised.
func (e *Engine) ListQuestions() []QuestionSummary {
	questions := []Question{defaultQuestion()}
	if cat := e.catalog(); cat != nil && cat.Len() > 0 {
		questions = cat.Questions()
	}

	summaries := make([]QuestionSummary, 0, len(questions))
	for _, q := range questions {
		summaries = append(summaries, QuestionSummary{
			ID:          q.ID,
			Prompt:      q.Prompt,
			AnswerCount: len(q.Answers),
		})
	}
	return summaries
}

// SelectAnswer reveals an answer by id. Re-selecting a revealed answer leaves
// the pot alone and reports newly=false, but still broadcasts since the
// selection highlight changed.
func (e *Engine) SelectAnswer(id int) (answer Answer, newly bool, roundScore int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	answer, newly, err = e.state.revealAnswer(id)
	if err != nil {
		return Answer{}, false, 0, err
	}
	roundScore = e.state.RoundScore

	e.broadcast(e.state.clone())
	return answer, newly, roundScore, nil
}

// ResetBoard hides all answers and clears the pot, keeping strikes and scores.
func (e *Engine) ResetBoard() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.resetRound()
	e.broadcast(e.state.clone())
}

// NewQuestion jumps to the question with the given id, or cycles to the
// catalog successor of the current question when id is nil.
func (e *Engine) NewQuestion(id *int) (questionID int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := e.resolveQuestionLocked(id)
	if err != nil {
		return 0, err
	}

	e.state.loadQuestion(q)
	e.broadcast(e.state.clone())
	return q.ID, nil
}

// NextRound banks the pot to the active team, then advances to the next
// question in catalog order. Both effects land in a single broadcast.
func (e *Engine) NextRound() (questionID, awarded, team1Score, team2Score int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := e.resolveQuestionLocked(nil)
	if err != nil {
		return 0, 0, 0, 0, err
	}

	awarded = e.state.award()
	e.state.loadQuestion(q)
	team1Score = e.state.Team1Score
	team2Score = e.state.Team2Score

	e.broadcast(e.state.clone())
	return q.ID, awarded, team1Score, team2Score, nil
}

// resolveQuestionLocked picks the target question for NewQuestion/NextRound
// without mutating anything, so load failures leave the board untouched.
func (e *Engine) resolveQuestionLocked(id *int) (Question, error) {
	cat := e.catalog()
	if cat == nil {
		// Bank unreadable: degrade to the default question so the game
		// stays playable.
		if id != nil {
			if q := defaultQuestion(); q.ID == *id {
				return q, nil
			}
			return Question{}, errNotFound
		}
		return defaultQuestion(), nil
	}

	if cat.Len() == 0 {
		return Question{}, errNoQuestions
	}

	if id != nil {
		q, ok := cat.ById(*id)
		if !ok {
			return Question{}, errNotFound
		}
		return q, nil
	}

	q, _ := cat.Next(e.state.QuestionID)
	return q, nil
}

func (e *Engine) SetActiveTeam(team int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.setActiveTeam(team); err != nil {
		return 0, err
	}

	e.broadcast(e.state.clone())
	return team, nil
}

func (e *Engine) SetTeamScore(team, score int) (team1Score, team2Score int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.setTeamScore(team, score); err != nil {
		return 0, 0, err
	}
	team1Score = e.state.Team1Score
	team2Score = e.state.Team2Score

	e.broadcast(e.state.clone())
	return team1Score, team2Score, nil
}

func (e *Engine) AddStrike() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.addStrike()
	e.broadcast(e.state.clone())
	return e.state.Strikes
}

func (e *Engine) ClearStrikes() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.clearStrikes()
	e.broadcast(e.state.clone())
	return e.state.Strikes
}

func (e *Engine) Award() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	awarded := e.state.award()
	e.broadcast(e.state.clone())
	return awarded
}

func (e *Engine) AwardSteal() (awarded, to int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	awarded, to = e.state.awardSteal()
	e.broadcast(e.state.clone())
	return awarded, to
}
