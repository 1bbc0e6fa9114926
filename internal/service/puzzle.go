package service

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dexquiz/dexquiz/internal/pokeapi"
	"github.com/dexquiz/dexquiz/internal/quizstate"
)

const (
	maskedName    = "???"
	noEnglishText = "No English entry found."
)

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func maskName(text, name string) string {
	if name == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))
	return re.ReplaceAllLiteralString(text, maskedName)
}

func englishEntry(p *pokeapi.Pokemon, rnd *rand.Rand) string {
	var english []string
	for _, e := range p.FlavorTextEntries {
		if e.Language == "en" {
			english = append(english, e.Text)
		}
	}
	if len(english) == 0 {
		return noEnglishText
	}
	text := strings.Join(strings.Fields(english[rnd.IntN(len(english))]), " ")
	return maskName(text, p.Name)
}

func newState(p *pokeapi.Pokemon, rnd *rand.Rand) *quizstate.State {
	st := &quizstate.State{
		PokemonID: p.ID,
		Name:      p.Name,
		Height:    p.Height,
		Weight:    p.Weight,
		Stats:     make(map[string]int, len(p.Stats)),
		Types:     make([]string, 0, len(p.Types)),
		Entry:     englishEntry(p, rnd),
	}
	for _, s := range p.Stats {
		st.Stats[capitalize(s.Name)] = s.BaseStat
	}
	for _, t := range p.Types {
		st.Types = append(st.Types, capitalize(t))
	}
	return st
}

// Puzzle is the client-facing view of a state; it never carries the name.
type Puzzle struct {
	PokemonID int            `json:"pokemon_id"`
	Height    int            `json:"height"`
	Weight    int            `json:"weight"`
	Stats     map[string]int `json:"stats"`
	Types     []string       `json:"types"`
	Entry     string         `json:"entry"`
	Score     int            `json:"score"`
}

func puzzleOf(st *quizstate.State) *Puzzle {
	return &Puzzle{
		PokemonID: st.PokemonID,
		Height:    st.Height,
		Weight:    st.Weight,
		Stats:     st.Stats,
		Types:     st.Types,
		Entry:     st.Entry,
		Score:     st.Score,
	}
}
