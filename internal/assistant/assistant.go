// Package assistant runs the conversation loop: listen, classify, search,
// summarise, speak, and ask whether to go on.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shopvox/internal/input"
	"shopvox/internal/intent"
	"shopvox/internal/search"
)

const (
	MsgGreeting    = "Hello! I'm your voice shopping assistant. What can I help you find today?"
	MsgRetry       = "I didn't catch that. Please try again."
	MsgTranscribe  = "Sorry, I couldn't make out what you said just now. Please try again."
	MsgHelp        = "Just tell me what product you're looking for, like \"wireless mouse\" or \"standing desk\", and I'll read you the top results. Say \"goodbye\" when you're done."
	MsgAskContinue = "Would you like to search for something else?"
	MsgNextQuery   = "What would you like to search for?"
	MsgNetwork     = "Sorry, I couldn't reach the search service. Please check your connection and try again."
	MsgProvider    = "Sorry, the search service had a problem. Please try again in a moment."
	MsgEmptyQuery  = "Sorry, I didn't hear a product to search for."
	MsgDevice      = "Sorry, I can't use the microphone right now, so I have to stop."
	MsgFarewell    = "Thank you for using the shopping assistant. Goodbye!"
	MsgInterrupted = "Goodbye!"
)

func MsgSearching(query string) string { return fmt.Sprintf("Searching for %s...", query) }

func MsgNoResults(query string) string {
	return fmt.Sprintf("Sorry, I couldn't find any products for %s.", query)
}

type State int

const (
	Greeting State = iota
	Listening
	Processing
	Speaking
	AskContinue
	Terminated
)

func (s State) String() string {
	switch s {
	case Greeting:
		return "greeting"
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	case Speaking:
		return "speaking"
	case AskContinue:
		return "ask_continue"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Searcher interface {
	Search(ctx context.Context, query string) (search.Result, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, res search.Result) string
}

type Speaker interface {
	Say(ctx context.Context, text string)
	Echo(text string)
}

// Deps are the services the loop drives. All are required except Logger.
type Deps struct {
	Input   input.Listener
	Search  Searcher
	Summary Summarizer
	Output  Speaker
	Logger  *slog.Logger
}

type Assistant struct {
	deps  Deps
	log   *slog.Logger
	state State

	transcript string
	reply      string
}

func New(d Deps) *Assistant {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{deps: d, log: logger, state: Greeting}
}

func (a *Assistant) State() State { return a.state }

// Run drives the state machine until the user leaves, the input runs out
// or ctx is cancelled; all three return nil. Only an input device failure
// returns an error.
func (a *Assistant) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			a.log.Info("interrupted", "state", a.state)
			a.sayDetached(ctx, MsgInterrupted)
			a.state = Terminated
			return nil
		}

		var err error
		switch a.state {
		case Greeting:
			a.deps.Output.Say(ctx, MsgGreeting)
			a.transition(Listening)
		case Listening:
			err = a.listen(ctx)
		case Processing:
			a.process(ctx)
		case Speaking:
			a.deps.Output.Say(ctx, a.reply)
			a.reply = ""
			a.transition(AskContinue)
		case AskContinue:
			err = a.askContinue(ctx)
		case Terminated:
			a.deps.Output.Say(ctx, MsgFarewell)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *Assistant) transition(next State) {
	a.log.Debug("state", "from", a.state, "to", next)
	a.state = next
}

func (a *Assistant) listen(ctx context.Context) error {
	text, err := a.deps.Input.Listen(ctx)
	switch {
	case err == nil:
		a.heard(text)
		a.transition(Processing)
	case ctx.Err() != nil:
	case errors.Is(err, input.ErrTimeout), errors.Is(err, input.ErrUnrecognized):
		a.log.Debug("nothing heard", "err", err)
		a.deps.Output.Say(ctx, MsgRetry)
	case errors.Is(err, input.ErrTranscribe):
		a.log.Warn("transcription failed", "err", err)
		a.deps.Output.Say(ctx, MsgTranscribe)
	case errors.Is(err, input.ErrClosed):
		a.transition(Terminated)
	default:
		return a.fatal(ctx, err)
	}
	return nil
}

func (a *Assistant) askContinue(ctx context.Context) error {
	a.deps.Output.Say(ctx, MsgAskContinue)

	text, err := a.deps.Input.Listen(ctx)
	switch {
	case err == nil:
		a.heard(text)
		switch {
		case intent.ClassifyReply(text) == intent.Decline:
			a.transition(Terminated)
		case intent.IsAffirmation(text):
			a.deps.Output.Say(ctx, MsgNextQuery)
			a.transition(Listening)
		default:
			a.transcript = intent.StripAffirmation(text)
			a.transition(Processing)
		}
	case ctx.Err() != nil:
	case errors.Is(err, input.ErrTimeout), errors.Is(err, input.ErrUnrecognized):
		a.deps.Output.Say(ctx, MsgNextQuery)
		a.transition(Listening)
	case errors.Is(err, input.ErrTranscribe):
		a.log.Warn("transcription failed", "err", err)
		a.deps.Output.Say(ctx, MsgTranscribe)
		a.transition(Listening)
	case errors.Is(err, input.ErrClosed):
		a.transition(Terminated)
	default:
		return a.fatal(ctx, err)
	}
	return nil
}

func (a *Assistant) heard(text string) {
	a.transcript = text
	a.deps.Output.Echo(text)
	a.log.Info("heard", "transcript", text)
}

func (a *Assistant) fatal(ctx context.Context, err error) error {
	a.log.Error("input failed", "err", err)
	a.deps.Output.Say(ctx, MsgDevice)
	a.transition(Terminated)
	return fmt.Errorf("listen: %w", err)
}

func (a *Assistant) process(ctx context.Context) {
	in := intent.Classify(a.transcript)
	a.log.Debug("intent", "kind", in.Kind, "query", in.Query)

	switch in.Kind {
	case intent.Exit:
		a.transition(Terminated)
		return
	case intent.Help:
		a.reply = MsgHelp
		a.transition(Speaking)
		return
	}

	query := strings.TrimSpace(in.Query)
	if query != "" {
		a.deps.Output.Say(ctx, MsgSearching(query))
	}

	start := time.Now()
	res, err := a.deps.Search.Search(ctx, in.Query)
	if ctx.Err() != nil {
		return
	}

	switch {
	case err == nil:
		a.log.Debug("search finished", "query", query, "results", res.Len(), "took", time.Since(start))
		a.reply = a.deps.Summary.Summarize(ctx, res)
	case errors.Is(err, search.ErrEmptyQuery):
		a.reply = MsgEmptyQuery
	case errors.Is(err, search.ErrNoResults):
		a.reply = MsgNoResults(query)
	case errors.Is(err, search.ErrNetwork):
		a.log.Warn("search failed", "query", query, "err", err)
		a.reply = MsgNetwork
	default:
		a.log.Warn("search failed", "query", query, "err", err)
		a.reply = MsgProvider
	}
	a.transition(Speaking)
}

func (a *Assistant) sayDetached(ctx context.Context, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	a.deps.Output.Say(ctx, text)
}
