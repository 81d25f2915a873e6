package main

// maxStrikes is the classic three-strike cap; addStrike saturates here.
const maxStrikes = 3

// GameState is the single authoritative board: one instance per server
// process, owned by the Engine and only ever touched under its lock. The
// json tags are the wire format pushed to every client as state_update.
type GameState struct {
	QuestionID   int      `json:"question_id"`
	Prompt       string   `json:"question"`
	Answers      []Answer `json:"answers"`
	LastSelected *Answer  `json:"last_selected"`
	Strikes      int      `json:"strikes"`
	RoundScore   int      `json:"roundScore"`
	Team1Name    string   `json:"team1Name"`
	Team2Name    string   `json:"team2Name"`
	Team1Score   int      `json:"team1Score"`
	Team2Score   int      `json:"team2Score"`
	ActiveTeam   int      `json:"activeTeam"`
}

func newGameState(q Question, team1, team2 string) GameState {
	s := GameState{
		Team1Name:  team1,
		Team2Name:  team2,
		ActiveTeam: 1,
	}
	s.loadQuestion(q)
	return s
}

// clone returns a deep copy safe to hand to readers and the broadcast hub.
func (s *GameState) clone() GameState {
	out := *s
	out.Answers = make([]Answer, len(s.Answers))
	copy(out.Answers, s.Answers)
	if s.LastSelected != nil {
		selected := *s.LastSelected
		out.LastSelected = &selected
	}
	return out
}

// resetRound hides every answer and zeroes the round pot. Strikes survive a
// plain reset; only clearStrikes or loading a fresh question drops them.
func (s *GameState) resetRound() {
	for i := range s.Answers {
		s.Answers[i].Revealed = false
	}
	s.LastSelected = nil
	s.RoundScore = 0
}

// revealAnswer flips the answer with the given id face-up and adds its points
// to the round pot. Revealing an already-revealed answer is idempotent: the
// pot is untouched and newly reports false.
func (s *GameState) revealAnswer(id int) (answer Answer, newly bool, err error) {
	for i := range s.Answers {
		if s.Answers[i].ID != id {
			continue
		}

		if !s.Answers[i].Revealed {
			s.Answers[i].Revealed = true
			s.RoundScore += s.Answers[i].Points
			newly = true
		}

		answer = s.Answers[i]
		s.LastSelected = &answer
		return answer, newly, nil
	}

	return Answer{}, false, errNotFound
}

// addStrike saturates at maxStrikes rather than failing.
func (s *GameState) addStrike() {
	if s.Strikes < maxStrikes {
		s.Strikes++
	}
}

func (s *GameState) clearStrikes() {
	s.Strikes = 0
}

func (s *GameState) setActiveTeam(team int) error {
	if team != 1 && team != 2 {
		return errInvalidTeam
	}
	s.ActiveTeam = team
	return nil
}

// setTeamScore overwrites a team's total outright, for manual corrections.
func (s *GameState) setTeamScore(team, score int) error {
	switch team {
	case 1:
		s.Team1Score = score
	case 2:
		s.Team2Score = score
	default:
		return errInvalidTeam
	}
	return nil
}

// award banks the round pot to the active team and returns the amount banked.
func (s *GameState) award() int {
	awarded := s.RoundScore
	if awarded <= 0 {
		return 0
	}

	if s.ActiveTeam == 1 {
		s.Team1Score += awarded
	} else {
		s.Team2Score += awarded
	}
	s.RoundScore = 0

	return awarded
}

// awardSteal banks the round pot to the non-active team, returning the amount
// and the team that received it.
func (s *GameState) awardSteal() (awarded, to int) {
	to = 2
	if s.ActiveTeam == 2 {
		to = 1
	}

	awarded = s.RoundScore
	if awarded <= 0 {
		return 0, to
	}

	if to == 1 {
		s.Team1Score += awarded
	} else {
		s.Team2Score += awarded
	}
	s.RoundScore = 0

	return awarded, to
}

// loadQuestion swaps in a fresh working copy of q: all answers face-down,
// no selection, empty pot, strikes cleared.
func (s *GameState) loadQuestion(q Question) {
	s.QuestionID = q.ID
	s.Prompt = q.Prompt
	s.Answers = make([]Answer, len(q.Answers))
	copy(s.Answers, q.Answers)
	for i := range s.Answers {
		s.Answers[i].Revealed = false
	}
	s.LastSelected = nil
	s.RoundScore = 0
	s.Strikes = 0
}
