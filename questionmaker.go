package fsptrainer

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/samber/lo"
)

// Generator builds multiple choice questions by sampling the term bank
type Generator struct {
	bank *TermBank
	rng  *rand.Rand
}

// NewGenerator creates a generator; a nil rng gets a time-seeded source.
// The rng is not safe for concurrent use, so each session owns its generator.
func NewGenerator(bank *TermBank, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if bank == nil {
		bank = emptyBank()
	}
	return &Generator{bank: bank, rng: rng}
}

// Bank returns the term bank the generator samples from
func (g *Generator) Bank() *TermBank {
	return g.bank
}

// Generate returns up to count questions over distinct terms of the whole bank.
// Asking for more questions than there are terms silently serves fewer.
func (g *Generator) Generate(count int) ([]Question, error) {
	return g.generate(g.bank.terms, count)
}

// GenerateFor restricts the sampled terms to the given list; distractors
// are still drawn from the whole bank.
func (g *Generator) GenerateFor(terms []string, count int) ([]Question, error) {
	source := lo.Uniq(lo.Map(terms, func(t string, _ int) string { return normalizeText(t) }))
	for _, term := range source {
		if !g.bank.Has(term) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
		}
	}
	return g.generate(source, count)
}

func (g *Generator) generate(source []string, count int) ([]Question, error) {
	if count <= 0 || len(source) == 0 {
		return []Question{}, nil
	}
	if count > len(source) {
		VerboseLog("Requested %d questions but only %d terms are available", count, len(source))
		count = len(source)
	}

	picked := g.sample(source, count)
	questions := make([]Question, 0, count)
	for i, term := range picked {
		q, err := g.makeQuestion(term)
		if err != nil {
			return nil, err
		}
		q.ID = i + 1
		questions = append(questions, q)
	}

	VerboseLog("Generated %d questions", len(questions))
	return questions, nil
}

// sample draws n distinct values without replacement (partial Fisher-Yates)
func (g *Generator) sample(values []string, n int) []string {
	buf := append([]string(nil), values...)
	for i := 0; i < n; i++ {
		j := i + g.rng.Intn(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:n]
}

// makeQuestion picks a direction at random. When the term lacks distractors
// in that direction the other one is used, so only terms that cannot be
// asked at all fail.
func (g *Generator) makeQuestion(term string) (Question, error) {
	forward := g.rng.Intn(2) == 0
	q, err := g.buildQuestion(term, forward)
	if errors.Is(err, ErrInsufficientDistractorPool) {
		VerboseLog("Term %q: %v, trying the other direction", term, err)
		q, err = g.buildQuestion(term, !forward)
	}
	return q, err
}

func (g *Generator) buildQuestion(term string, forward bool) (Question, error) {
	synonyms := g.bank.entries[term]

	q := Question{Term: term}
	var pool []string
	if forward {
		q.Direction = Forward
		q.Correct = synonyms[0]
		q.Meaning = q.Correct
		q.Prompt = fmt.Sprintf("Was bedeutet '%s' auf Deutsch?", term)
		pool = g.bank.eligibleDistractors(term, Forward, q.Meaning)
	} else {
		// only meanings that leave enough other terms can be prompted
		pools := make(map[string][]string, len(synonyms))
		feasible := lo.Filter(synonyms, func(m string, _ int) bool {
			pools[m] = g.bank.eligibleDistractors(term, Reverse, m)
			return len(pools[m]) >= NumDistractors
		})
		q.Direction = Reverse
		q.Meaning = synonyms[g.rng.Intn(len(synonyms))]
		if len(feasible) > 0 {
			q.Meaning = feasible[g.rng.Intn(len(feasible))]
		}
		q.Correct = term
		q.Prompt = fmt.Sprintf("Was ist der Fachbegriff für '%s'?", q.Meaning)
		pool = pools[q.Meaning]
	}

	if len(pool) < NumDistractors {
		return Question{}, &InsufficientDistractorsError{Term: term, Direction: q.Direction, Eligible: len(pool)}
	}

	options := append([]string{q.Correct}, g.sample(pool, NumDistractors)...)
	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	q.Options = options
	return q, nil
}

// eligibleDistractors returns the distinct wrong answers allowed for a question.
// Synonyms of the term are never eligible since they would also be correct;
// for reverse questions neither is any other term listing the prompted meaning.
func (b *TermBank) eligibleDistractors(term string, dir Direction, meaning string) []string {
	excluded := make(map[string]bool)
	for _, m := range b.entries[term] {
		excluded[m] = true
	}

	var pool []string
	switch dir {
	case Forward:
		pool = lo.Uniq(b.meanings)
	case Reverse:
		pool = b.terms
		excluded[term] = true
		for _, other := range b.byMean[meaning] {
			excluded[other] = true
		}
	}

	return lo.Filter(pool, func(v string, _ int) bool { return !excluded[v] })
}
