package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Answer is one board tile. Points are fixed by the question bank; revealed
// flips true at most once per round.
type Answer struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Points   int    `json:"points"`
	Revealed bool   `json:"revealed"`
}

// Question is immutable once loaded; the engine copies it into live state
// rather than mutating the catalog's entry.
type Question struct {
	ID      int      `json:"id"`
	Prompt  string   `json:"question"`
	Answers []Answer `json:"answers"`
}

type questionBank struct {
	Questions []Question `json:"questions"`
}

// Catalog holds the question bank in the order it appears on disk. Advancement
// is positional, so non-contiguous or unsorted ids still cycle correctly.
type Catalog struct {
	questions []Question
}

func loadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}

	var bank questionBank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parsing question bank %s: %w", path, err)
	}

	return &Catalog{questions: bank.Questions}, nil
}

func (c *Catalog) Len() int {
	return len(c.questions)
}

func (c *Catalog) Questions() []Question {
	return c.questions
}

// ById returns the question with the given id, or false if absent.
func (c *Catalog) ById(id int) (Question, bool) {
	for _, q := range c.questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Next returns the cyclic successor of afterID in catalog order. The last
// question (and any unknown id) wraps to the first.
func (c *Catalog) Next(afterID int) (Question, bool) {
	if len(c.questions) == 0 {
		return Question{}, false
	}

	for i, q := range c.questions {
		if q.ID == afterID {
			return c.questions[(i+1)%len(c.questions)], true
		}
	}

	return c.questions[0], true
}

// defaultQuestion keeps the board playable when the question bank is missing,
// empty, or unparseable.
func defaultQuestion() Question {
	return Question{
		ID:     1,
		Prompt: "Name something you take on vacation",
		Answers: []Answer{
			{ID: 1, Text: "Toothbrush", Points: 30},
			{ID: 2, Text: "Sunscreen", Points: 25},
			{ID: 3, Text: "Passport", Points: 20},
			{ID: 4, Text: "Camera", Points: 15},
			{ID: 5, Text: "Clothes", Points: 10},
		},
	}
}
