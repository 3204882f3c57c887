// Package intent turns a transcript into what the user wants the assistant
// to do next.
//
// Matching is whole-token and case-insensitive. Keyword sets are checked in
// a fixed order: exit keywords win over help, help wins over search. A
// product name that merely contains a keyword ("byte", "helpful") is a
// search.
package intent

import (
	"slices"
	"strings"
	"unicode"
)

type Kind int

const (
	Search Kind = iota
	Exit
	Help
)

func (k Kind) String() string {
	switch k {
	case Exit:
		return "exit"
	case Help:
		return "help"
	default:
		return "search"
	}
}

// Intent is the classified transcript. Query is set only for Search and
// holds the transcript exactly as it was heard.
type Intent struct {
	Kind  Kind
	Query string
}

var (
	exitWords    = []string{"goodbye", "exit", "quit", "bye"}
	declineWords = []string{"no", "nope", "nah", "stop"}
	affirmWords  = []string{"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "please", "continue", "go", "ahead"}
)

const helpWord = "help"

func Classify(transcript string) Intent {
	tokens := Tokens(transcript)

	if containsAny(tokens, exitWords) {
		return Intent{Kind: Exit}
	}
	if len(tokens) == 1 && tokens[0] == helpWord {
		return Intent{Kind: Help}
	}

	return Intent{Kind: Search, Query: transcript}
}

type Reply int

const (
	Continue Reply = iota
	Decline
)

func (r Reply) String() string {
	if r == Decline {
		return "decline"
	}
	return "continue"
}

// ClassifyReply interprets the answer to "search for something else?".
// Silence and anything that is not a refusal counts as Continue.
func ClassifyReply(transcript string) Reply {
	tokens := Tokens(transcript)
	if containsAny(tokens, exitWords) || containsAny(tokens, declineWords) {
		return Decline
	}
	return Continue
}

// IsAffirmation reports whether transcript is nothing but a plain yes. A
// Continue reply that is not an affirmation already names what to search.
func IsAffirmation(transcript string) bool {
	tokens := Tokens(transcript)
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !slices.Contains(affirmWords, t) {
			return false
		}
	}
	return true
}

// StripAffirmation removes leading yes-words and the punctuation after
// them: "yes, a usb hub" becomes "a usb hub". A transcript without a
// leading affirmation is returned unchanged.
func StripAffirmation(transcript string) string {
	rest := strings.TrimSpace(transcript)
	for {
		word, tail, _ := strings.Cut(rest, " ")
		if !slices.Contains(affirmWords, strings.ToLower(strings.TrimFunc(word, notWordRune))) {
			return rest
		}
		next := strings.TrimLeftFunc(tail, notWordRune)
		if next == "" {
			return rest
		}
		rest = next
	}
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Tokens lowercases s and splits it into runs of letters and digits.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), notWordRune)
}

func containsAny(tokens, words []string) bool {
	for _, t := range tokens {
		for _, w := range words {
			if t == w {
				return true
			}
		}
	}
	return false
}
