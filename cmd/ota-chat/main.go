package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/assistant"
	"github.com/malik-dev28/OTA-AI/internal/config"
	"github.com/malik-dev28/OTA-AI/internal/conversation"
	"github.com/malik-dev28/OTA-AI/internal/flights"
	"github.com/malik-dev28/OTA-AI/internal/logger"
	"github.com/malik-dev28/OTA-AI/internal/reveal"
	"github.com/malik-dev28/OTA-AI/internal/store"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

const localSession = "local"

const helpText = `Ask anything about travel, or describe a trip ("flights from NYC to LAX on Dec 25").
Commands: /recent  /replay N  /new  /help  /quit`

type app struct {
	pipeline *conversation.Pipeline
	session  *conversation.Session
	flights  flights.Searcher
	out      io.Writer
	log      *zap.Logger
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	historyPath := cfg.HistoryFile
	if historyPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			historyPath = filepath.Join(home, ".ota-chat", "history.json")
		} else {
			historyPath = "ota-chat-history.json"
		}
	}
	history := store.NewFileStore(historyPath, cfg.SessionMaxHistory)
	prior, err := history.Load(ctx, localSession)
	if err != nil {
		log.Warn("failed to load recent prompts", zap.String("path", historyPath), zap.Error(err))
	}

	api := assistant.NewClient(cfg.AssistantBaseURL(), cfg.ChatTimeout, logger.Component(log, "assistant"))
	httpClient := flights.NewHTTPClient(ctx, flights.Credentials{
		Token:        cfg.FlightAPIToken,
		ClientID:     cfg.FlightAPIClientID,
		ClientSecret: cfg.FlightAPIClientSecret,
		TokenURL:     cfg.FlightAPITokenURL,
	}, cfg.FlightAPITimeout)

	pipeline := conversation.NewPipeline(api, api, reveal.New(cfg.RevealDelay), logger.Component(log, "conversation"))
	pipeline.History = history

	a := &app{
		pipeline: pipeline,
		session:  conversation.NewSession(localSession, prior, cfg.SessionMaxHistory),
		flights:  flights.NewClient(httpClient, cfg.FlightAPIURL, logger.Component(log, "flights")),
		out:      os.Stdout,
		log:      log,
	}
	log.Debug("assistant api", zap.String("url", cfg.AssistantBaseURL()))
	fmt.Fprintln(a.out, helpText)
	a.loop(ctx, os.Stdin)
}

func (a *app) loop(ctx context.Context, in io.Reader) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "\n> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		a.session.SetInput(line)
		if !a.handle(ctx, line) {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// handle runs one input line and reports whether the loop should continue.
func (a *app) handle(ctx context.Context, line string) bool {
	switch {
	case line == "":
		return true
	case line == "/quit" || line == "/exit":
		return false
	case line == "/help":
		fmt.Fprintln(a.out, helpText)
	case line == "/new":
		a.session.Reset()
		fmt.Fprintln(a.out, "Started a new chat.")
	case line == "/recent":
		a.printRecent()
	case strings.HasPrefix(line, "/replay"):
		a.replay(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/replay")))
	default:
		a.submit(ctx, line)
	}
	return true
}

func (a *app) printRecent() {
	h := a.session.Snapshot().History
	if len(h) == 0 {
		fmt.Fprintln(a.out, "No recent prompts.")
		return
	}
	for i, p := range h {
		fmt.Fprintf(a.out, "%2d. %s\n", i+1, p)
	}
}

func (a *app) replay(ctx context.Context, arg string) {
	h := a.session.Snapshot().History
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(h) {
		fmt.Fprintln(a.out, "Usage: /replay N (see /recent)")
		return
	}
	res, err := a.pipeline.Replay(ctx, a.session, h[n-1], &terminalSink{out: a.out})
	if err != nil {
		fmt.Fprintln(a.out, err)
		return
	}
	a.finish(ctx, res)
}

func (a *app) submit(ctx context.Context, text string) {
	res, err := a.pipeline.Submit(ctx, a.session, text, &terminalSink{out: a.out})
	if err != nil {
		fmt.Fprintln(a.out, err)
		return
	}
	a.finish(ctx, res)
}

func (a *app) finish(ctx context.Context, res conversation.Result) {
	switch res.Kind {
	case conversation.KindChat:
		fmt.Fprintln(a.out)
	case conversation.KindError:
		fmt.Fprintln(a.out, res.Text)
	case conversation.KindFlightSearch:
		var q *types.FlightQuery
		if pending, ok := a.session.ConsumeFlightQuery(); ok {
			q = &pending
		}
		fmt.Fprintln(a.out, "Searching flights...")
		results, err := flights.Load(ctx, a.flights, q, "")
		if err != nil {
			a.log.Warn("flight search failed", zap.Error(err))
		}
		renderResults(a.out, results)
	}
}
