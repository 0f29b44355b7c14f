package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/app"
	"github.com/vntrieu/moodscreen/internal/chat"
	"github.com/vntrieu/moodscreen/internal/database"
	"github.com/vntrieu/moodscreen/internal/questionnaire"
)

const (
	chatGreeting = "💬 Добро пожаловать! Введите 'выход' для завершения диалога."
	chatClosed   = "🔚 Диалог завершён."
)

// runServe starts the backend and blocks until SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	if addr != "" {
		cfg.HTTPAddr = addr
	}
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

func runScore(cmd *cobra.Command, args []string) error {
	q, err := questionnaire.Load(cfg.QuestionnaireFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		fmt.Fprintln(out, q.Title)
		for i, question := range q.Questions {
			fmt.Fprintf(out, "%d. %s\n", i+1, question.Text)
		}
		for _, o := range q.Options {
			fmt.Fprintf(out, "  %d = %s\n", o.Value, o.Label)
		}
		return nil
	}

	values := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("answer %d: %q is not a number", i+1, a)
		}
		values[i] = v
	}
	res, err := q.Score(values)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Баллы: %d из %d\n", res.Score, q.MaxScore())
	fmt.Fprintf(out, "Результат: %s (%s)\n", res.Severity.Label, res.Severity.Level)
	return nil
}

// runChat runs a dialog over the command's input and output until an exit
// word or end of input.
func runChat(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var severity *questionnaire.Severity
	if score >= 0 {
		s := a.Questionnaire.Classify(score)
		severity = &s
	}

	out := cmd.OutOrStdout()
	chatID := a.Chat.NewChatID()
	welcome, err := a.Chat.Start(ctx, chatID, nil, severity)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, chatGreeting)
	fmt.Fprintf(out, "🤖 %s\n", welcome)
	if !a.Chat.Available() {
		logger.Warn("no chat model configured")
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "👤 ")
		if !in.Scan() {
			break
		}
		text := strings.TrimSpace(in.Text())
		if text == "" {
			continue
		}
		reply, err := a.Chat.Reply(ctx, chatID, text)
		if err != nil {
			if errors.Is(err, chat.ErrEmptyMessage) {
				continue
			}
			return err
		}
		fmt.Fprintf(out, "🤖 %s\n", reply)
		if chat.IsExit(text) {
			break
		}
	}
	if err := in.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, chatClosed)
	logger.Debug("chat finished", zap.String("chat_id", chatID))
	return nil
}

func runToolsList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Tools.Refresh(ctx)
	out := cmd.OutOrStdout()
	specs := a.Tools.Specs()
	if len(specs) == 0 {
		fmt.Fprintln(out, "No tools configured.")
		return nil
	}
	for _, s := range specs {
		fmt.Fprintf(out, "%s\t%s\n", s.Name, s.Description)
		names := make([]string, 0, len(s.Parameters.Properties))
		for name := range s.Parameters.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %s (%s)\n", name, s.Parameters.Properties[name].Type)
		}
	}
	return nil
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Tools.Refresh(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), a.Tools.Call(ctx, args[0], toolArgs))
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	ctx := commandContext(cmd)
	pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DatabasePool)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("database migrate: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
	return nil
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
