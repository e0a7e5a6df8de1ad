package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"fsptrainer"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a terminology quiz in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		numQuestions, _ := cmd.Flags().GetInt("questions")
		terms, _ := cmd.Flags().GetStringSlice("term")
		offline, _ := cmd.Flags().GetBool("offline")
		seed, _ := cmd.Flags().GetInt64("seed")
		if !cmd.Flags().Changed("questions") {
			numQuestions = cfg.Quiz.DefaultLength
		}
		if !cmd.Flags().Changed("seed") {
			seed = time.Now().UnixNano()
		}

		bank, err := fsptrainer.LoadTermBank(cfg.TermBank.Path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
		}

		var describer fsptrainer.Describer
		if !offline {
			describer = fsptrainer.NewContextGenerator(cfg.LLM)
		}

		c := fsptrainer.NewController(fsptrainer.NewGenerator(bank, rand.New(rand.NewSource(seed))), describer)
		if cfg.History.DSN != "" {
			if db, err := openHistory(cfg.History.DSN); err == nil {
				defer db.CloseDB()
				c.SetRecorder(db)
			}
		}

		p := player{in: bufio.NewScanner(os.Stdin), out: cmd.OutOrStdout()}
		return p.play(cmd.Context(), c, terms, cfg.Quiz.ClampLength(numQuestions))
	},
}

func init() {
	playCmd.Flags().IntP("questions", "n", 10, "number of questions")
	playCmd.Flags().StringSlice("term", nil, "restrict the quiz to these terms (repeatable)")
	playCmd.Flags().Bool("offline", false, "skip the example sentence service")
	playCmd.Flags().Int64("seed", 0, "random seed for reproducible quizzes")
}

func openHistory(dsn string) (*fsptrainer.DB, error) {
	db, err := fsptrainer.OpenDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(); err != nil {
		db.CloseDB()
		return nil, err
	}
	return db, nil
}

// player drives a controller from line based terminal input
type player struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *player) play(ctx context.Context, c *fsptrainer.Controller, terms []string, count int) error {
	var err error
	if len(terms) > 0 {
		err = c.StartFor(ctx, terms, count)
	} else {
		err = c.Start(ctx, count)
	}
	if err != nil {
		return err
	}

	for c.State() == fsptrainer.StateAwaitingAnswer {
		q, _ := c.Current()
		index, total := c.Progress()
		fmt.Fprintf(p.out, "Frage %d / %d\n", index+1, total)
		fmt.Fprintf(p.out, "❓ %s\n\n", q.Prompt)
		for i, opt := range q.Options {
			fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
		}
		fmt.Fprintln(p.out)

		choice, err := p.readChoice(len(q.Options))
		if err != nil {
			return err
		}

		fmt.Fprintln(p.out, "⏳ Klinischer Kontext wird generiert...")
		fb, err := c.Submit(ctx, q.Options[choice])
		if err != nil {
			return err
		}
		if fb.IsCorrect() {
			fmt.Fprintf(p.out, "✅ Richtig! (%s)\n", fb.Correct)
		} else {
			fmt.Fprintf(p.out, "❌ Falsch. Richtig: %s\n", fb.Correct)
		}
		fmt.Fprintf(p.out, "🤖 Klinischer Kontext: %s\n", fb.Example)
		fmt.Fprintln(p.out, strings.Repeat("─", 50))

		if err := c.Advance(ctx); err != nil {
			return err
		}
	}

	res := c.Result()
	fmt.Fprintln(p.out, "🏁 Training abgeschlossen!")
	if res.Total == 0 {
		fmt.Fprintln(p.out, "Keine Fragen verfügbar.")
		return nil
	}
	fmt.Fprintf(p.out, "Richtig: %d / %d\n", res.Score, res.Total)
	fmt.Fprintf(p.out, "Erfolg: %.1f%%\n", res.Percent)
	return nil
}

var errNoInput = errors.New("input closed before the quiz was finished")

// readChoice returns a zero-based option index
func (p *player) readChoice(n int) (int, error) {
	for {
		fmt.Fprintf(p.out, "Ihre Antwort (1-%d): ", n)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, err
			}
			return 0, errNoInput
		}
		choice, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err == nil && choice >= 1 && choice <= n {
			return choice - 1, nil
		}
		fmt.Fprintf(p.out, "Bitte eine Zahl zwischen 1 und %d eingeben.\n", n)
	}
}
