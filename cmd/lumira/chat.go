package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
	"github.com/pavelanni/lumira/internal/metrics"
	"github.com/pavelanni/lumira/internal/orchestrator"
)

const consoleSession = "console"

func runChat(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, v, metrics.Nop())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx = appI18n.WithLang(ctx, a.cfg.Lang)
	return chatLoop(ctx, a.bot, cmd.InOrStdin(), cmd.OutOrStdout())
}

// chatLoop reads one utterance per line until EOF or a reply that ends the
// conversation.
func chatLoop(ctx context.Context, bot *orchestrator.Orchestrator, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, appI18n.T(ctx, "Welcome"))

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n"+appI18n.T(ctx, "ChatPrompt"))
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}

		reply, err := bot.Handle(ctx, consoleSession, sc.Text())
		if err != nil {
			return err
		}
		if reply.Done {
			fmt.Fprintln(out, reply.Text)
			return nil
		}
		if reply.Text != "" {
			fmt.Fprintf(out, "\n%s\n\n%s\n", appI18n.T(ctx, "ChatAnswer"), reply.Text)
		}
	}
}
