package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/malik-dev28/OTA-AI/internal/flights"
)

const (
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

var terminalMarkup = strings.NewReplacer(
	"<b>", ansiBold,
	"</b>", ansiReset,
	"</br>", "\n",
)

// terminalSink prints revealed chunks as they arrive.
type terminalSink struct {
	out io.Writer
}

func (t *terminalSink) TurnStarted(uint64) {}

func (t *terminalSink) Token(chunk string) {
	fmt.Fprint(t.out, terminalMarkup.Replace(chunk))
}

func renderResults(w io.Writer, res flights.Results) {
	if res.Summary != "" {
		fmt.Fprintf(w, "%s%s%s\n", ansiBold, res.Summary, ansiReset)
	}
	switch res.State {
	case flights.StateReady:
		for i, c := range res.Cards {
			fmt.Fprintf(w, "\n%d. %s  %s  (%d seats left)\n", i+1, c.Airline, c.Price, c.SeatsLeft)
			for _, l := range c.Legs {
				fmt.Fprintf(w, "   %s %s  ->  %s %s   %s, %s\n",
					l.DepartTime, l.From, l.ArriveTime, l.To, l.Duration, stopsLabel(l.Stops))
			}
		}
	default:
		fmt.Fprintln(w, res.Message)
		for _, act := range res.Actions {
			fmt.Fprintf(w, "  [%s]\n", act.Label)
		}
	}
}

func stopsLabel(n int) string {
	switch n {
	case 0:
		return "nonstop"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", n)
	}
}
