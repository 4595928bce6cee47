package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/wordwise/internal/quiz"
	"github.com/example/wordwise/pkg/models"
)

type quizOptions struct {
	kind       string
	mode       string
	difficulty string
	count      string
	levels     []string
	free       bool
	review     bool
	resume     bool
}

func newQuizCmd(opts *rootOptions) *cobra.Command {
	qo := &quizOptions{}
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Run an interactive quiz in the terminal",
		Args:  cobra.NoArgs,
	}
	f := cmd.Flags()
	kindFlag(cmd, &qo.kind)
	f.StringVar(&qo.mode, "mode", "en-zh", "en-zh, zh-en or mixed")
	f.StringVar(&qo.difficulty, "difficulty", "auto", "auto, beginner, expert, hell or custom")
	f.StringVar(&qo.count, "count", "", "number of questions or all")
	f.StringSliceVar(&qo.levels, "levels", nil, "levels for custom difficulty, e.g. A1,B2")
	f.BoolVar(&qo.free, "free", false, "type answers instead of choosing")
	f.BoolVar(&qo.review, "review", false, "practise the wrong-item set")
	f.BoolVar(&qo.resume, "resume", false, "continue the saved session")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		engine := quiz.NewEngine(a.cache, a.stats(), quiz.EngineConfig{
			OptionCount: a.cfg.Quiz.OptionCount,
			Logger:      a.log,
		})
		t := newTerminal(engine, cmd.InOrStdin(), cmd.OutOrStdout())

		sess, err := qo.start(cmd.Context(), engine, a.cfg.Quiz.DefaultCount)
		if err != nil {
			return err
		}
		return t.run(cmd.Context(), sess)
	})
	return cmd
}

func (qo *quizOptions) start(ctx context.Context, engine *quiz.Engine, defaultCount int) (*quiz.Session, error) {
	kind, err := models.ParseKind(qo.kind)
	if err != nil {
		return nil, err
	}
	if qo.resume {
		return engine.Resume(ctx, kind)
	}

	mode, err := models.ParseStudyMode(qo.mode)
	if err != nil {
		return nil, err
	}
	count, err := quiz.ParseCount(qo.count)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		count = defaultCount
	}
	if qo.review {
		return engine.StartReview(ctx, kind, mode, count, qo.free)
	}

	difficulty, err := models.ParseDifficultyMode(qo.difficulty)
	if err != nil {
		return nil, err
	}
	var levels []models.Level
	for _, lv := range qo.levels {
		level, err := models.ParseLevel(lv)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return engine.Start(ctx, quiz.StartRequest{
		Kind:           kind,
		Mode:           mode,
		DifficultyMode: difficulty,
		Count:          count,
		Levels:         levels,
		FreeText:       qo.free,
	})
}

// terminal runs a session on a line-oriented terminal
type terminal struct {
	engine *quiz.Engine
	in     *bufio.Reader
	out    io.Writer
	bold   *color.Color
	green  *color.Color
	red    *color.Color
	faint  *color.Color
}

func newTerminal(engine *quiz.Engine, in io.Reader, out io.Writer) *terminal {
	return &terminal{
		engine: engine,
		in:     bufio.NewReader(in),
		out:    out,
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		faint:  color.New(color.Faint),
	}
}

// run asks every question, prints the summary and offers a redo while answers were wrong
func (t *terminal) run(ctx context.Context, sess *quiz.Session) error {
	for {
		if err := t.ask(ctx, sess); err != nil {
			return err
		}
		if sess.State != quiz.StateCompleted {
			return nil
		}
		t.summary(sess)
		if len(sess.WrongList) == 0 {
			return nil
		}

		line, err := t.prompt("Redo wrong answers? [y/N] ")
		if err != nil || !strings.EqualFold(line, "y") {
			return nil
		}
		next, err := t.engine.RedoWrong(ctx, sess)
		if err != nil {
			return err
		}
		sess = next
	}
}

func (t *terminal) ask(ctx context.Context, sess *quiz.Session) error {
	for sess.State == quiz.StateInProgress {
		q, err := t.engine.Next(ctx, sess)
		if errors.Is(err, quiz.ErrSessionFinished) {
			// all answered but completion failed earlier
			return t.engine.Finish(ctx, sess)
		}
		if err != nil {
			return err
		}

		t.bold.Fprintf(t.out, "\n[%d/%d] %s", q.Index+1, sess.TotalQuestions, q.Prompt)
		if q.Item.PartOfSpeech != "" {
			t.faint.Fprintf(t.out, " (%s)", q.Item.PartOfSpeech)
		}
		fmt.Fprintln(t.out)
		for i, opt := range q.Options {
			fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt)
		}

		line, err := t.prompt("> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(t.out, "\nProgress saved. Run with --resume to continue.")
				return nil
			}
			return err
		}
		if line == "" {
			t.faint.Fprintln(t.out, "Type an answer, or Ctrl-D to stop.")
			continue
		}
		answer := line
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) {
			answer = q.Options[n-1]
		}

		rec, err := t.engine.Answer(ctx, sess, answer)
		if rec == nil {
			return err
		}
		if rec.IsCorrect {
			t.green.Fprintln(t.out, "✔ correct")
		} else {
			t.red.Fprintf(t.out, "✘ wrong, answer: %s\n", rec.CorrectAnswer)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *terminal) summary(sess *quiz.Session) {
	fmt.Fprintln(t.out)
	t.bold.Fprintf(t.out, "Score: %d/%d (%.1f%%)\n", sess.CorrectCount, sess.TotalQuestions, sess.Accuracy())
	for _, it := range sess.WrongList {
		t.red.Fprintf(t.out, "  %s", it.Source)
		fmt.Fprintf(t.out, " - %s\n", it.Target)
	}
}

func (t *terminal) prompt(label string) (string, error) {
	fmt.Fprint(t.out, label)
	line, err := t.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
