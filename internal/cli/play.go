package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"composer-quiz/internal/app"
	"composer-quiz/internal/domain"
	"composer-quiz/internal/infra/memory"
	"composer-quiz/internal/infra/sqlite"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs a quiz session in the terminal, keeping scores in a local SQLite file.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			st := newStack(cfg)
			defer st.close()

			loader, err := st.catalogLoader(ctx, cfg)
			if err != nil {
				return err
			}
			path := cfg.SQLite.Path
			if path == "" {
				path = sqlite.DefaultPath
			}
			scores, err := st.sqliteScores(path, log)
			if err != nil {
				return err
			}
			service := app.NewQuizService(
				st.catalogRepository(loader, cfg),
				scores,
				memory.NewSessionStore(),
				serviceOptions(cfg, log)...,
			)
			return playTerminal(ctx, service, cfg.InstallationID(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

type terminalEvent struct {
	round   *domain.RoundView
	result  *domain.AnswerResult
	notice  string
	summary *domain.SessionSummary
}

// terminalPresenter queues session output for the input loop; it never writes directly
// because the session calls it while holding its lock.
type terminalPresenter struct {
	events chan terminalEvent
}

func (p *terminalPresenter) ShowRound(view domain.RoundView) {
	p.events <- terminalEvent{round: &view}
}

func (p *terminalPresenter) ShowResult(result domain.AnswerResult) {
	p.events <- terminalEvent{result: &result}
}

func (p *terminalPresenter) Notify(message string) {
	p.events <- terminalEvent{notice: message}
}

func (p *terminalPresenter) SessionEnded(summary domain.SessionSummary) {
	p.events <- terminalEvent{summary: &summary}
}

// terminalPlayer has no audio output; it shows the sample locator instead.
type terminalPlayer struct {
	out io.Writer
}

func (p *terminalPlayer) Play(_ context.Context, uri string) error {
	color.New(color.FgMagenta).Fprintf(p.out, "♪ now playing %s\n", uri)
	return nil
}

func (p *terminalPlayer) Stop() {}

func (p *terminalPlayer) Release() {}

func playTerminal(ctx context.Context, service *app.QuizService, playerID string, in io.Reader, out io.Writer) error {
	presenter := &terminalPresenter{events: make(chan terminalEvent, 16)}
	session, err := service.StartSession(ctx, playerID, nil, &terminalPlayer{out: out}, presenter)
	if err != nil {
		return err
	}
	defer service.EndSession(session.ID())

	title := color.New(color.FgCyan, color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	faint := color.New(color.Faint)
	scanner := bufio.NewScanner(in)

	for ev := range presenter.events {
		switch {
		case ev.round != nil:
			view := ev.round
			title.Fprintf(out, "\nRound %d  (score %d, best %d)\n", view.Number, view.Score.CurrentScore, view.Score.HighScore)
			for i, choice := range view.Choices {
				name := choice.Composer
				if choice.Missing {
					name = "?"
				}
				fmt.Fprintf(out, "  %d) %s\n", i+1, name)
			}
			id, ok := readChoice(scanner, out, view.Choices)
			if !ok {
				return scanner.Err()
			}
			if _, err := service.Answer(ctx, session.ID(), id); err != nil {
				return err
			}
		case ev.result != nil:
			if ev.result.Correct {
				good.Fprintln(out, "Correct!")
			} else {
				bad.Fprintf(out, "Wrong, it was %s\n", composerOf(ctx, service, ev.result.CorrectID))
			}
		case ev.notice != "":
			faint.Fprintln(out, ev.notice)
		case ev.summary != nil:
			title.Fprintf(out, "\nGame over after %d rounds. Score %d, best %d\n",
				ev.summary.Rounds, ev.summary.Score.CurrentScore, ev.summary.Score.HighScore)
			return nil
		}
	}
	return nil
}

// readChoice prompts until a valid 1-based choice is entered. It reports false on EOF or "q".
func readChoice(scanner *bufio.Scanner, out io.Writer, choices []domain.Choice) (int, bool) {
	for {
		fmt.Fprintf(out, "your answer [1-%d, q to quit]: ", len(choices))
		if !scanner.Scan() {
			return 0, false
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "q" {
			return 0, false
		}
		n, err := strconv.Atoi(text)
		if err == nil && n >= 1 && n <= len(choices) {
			return choices[n-1].ID, true
		}
	}
}

func composerOf(ctx context.Context, service *app.QuizService, id int) string {
	catalog, err := service.Catalog(ctx)
	if err != nil {
		return strconv.Itoa(id)
	}
	sample, err := catalog.SampleByID(id)
	if err != nil {
		return strconv.Itoa(id)
	}
	return sample.Composer
}
