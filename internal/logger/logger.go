// Package logger is the diagnostic sink shared by every pass of the Pyrite
// semantic core (module resolver, type checker, ownership analyser, borrow
// checker). It mirrors the shape of esbuild's internal/logger: a Log value
// is a small bundle of closures threaded through the analysis instead of a
// global or a singleton, messages accumulate instead of panicking, and
// output order is made deterministic by sorting on source position before
// handing messages back to a caller.
//
// Unlike esbuild, the core never owns raw source text: by the time the AST
// reaches these passes the parser has already resolved every node to a
// Span (file + line/column range), so there is no Loc-from-byte-offset
// machinery here. Turning a Msg into a user-facing string is an external
// collaborator's job (see spec's non-goals on message wording and color).
package logger

import (
	"sort"
	"sync"
)

// Span is an immutable source location range, produced by the parser and
// carried on every AST node purely for diagnostics.
type Span struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Related is a secondary span attached to a diagnostic, e.g. "first mutable
// borrow occurs here" pointing back at an earlier borrow site.
type Related struct {
	Span  Span
	Label string
}

// Kind classifies a diagnostic. Internal is for invariant violations in the
// core itself (unexpected AST shape) and is reported, not panicked.
type Kind uint8

const (
	Error Kind = iota
	Warning
	Note
	Internal
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	case Internal:
		return "internal error"
	default:
		return "unknown"
	}
}

// Code is a stable diagnostic identifier of the form "Pnnnn" (see
// msg_ids.go). Codes are optional on warnings/notes but every Error and
// Internal message from the core carries one.
type Code string

// Msg is a single diagnostic. Suggestion is an optional machine-applicable
// fix description; it is not rendered here, only carried through.
type Msg struct {
	Kind       Kind
	Code       Code
	Text       string
	Span       Span
	Related    []Related
	Notes      []string
	Suggestion string
}

// SortableMsgs orders diagnostics by source position so that output is
// deterministic regardless of which pass (or which branch of a merge)
// discovered them first.
type SortableMsgs []Msg

func (a SortableMsgs) Len() int      { return len(a) }
func (a SortableMsgs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableMsgs) Less(i, j int) bool {
	ai, aj := a[i].Span, a[j].Span
	if ai.File != aj.File {
		return ai.File < aj.File
	}
	if ai.StartLine != aj.StartLine {
		return ai.StartLine < aj.StartLine
	}
	if ai.StartCol != aj.StartCol {
		return ai.StartCol < aj.StartCol
	}
	return a[i].Text < a[j].Text
}

// Log is the sink every analyser writes to. It is a bundle of closures
// (not an interface) so that a caller can swap the backing store — deferred
// batch collection during a single pass, or streamed straight to a
// formatter — without the core depending on either.
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

// NewDeferLog creates a Log that batches every message in memory and
// returns them, sorted, from Done. This is what every pass in this module
// uses: the driver decides what to do with the sorted Msg slice once a
// pass finishes (see §5's ordering guarantee — passes read but do not
// mutate the sink of an earlier pass once that pass has returned Done).
func NewDeferLog() Log {
	var mu sync.Mutex
	var msgs SortableMsgs
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mu.Lock()
			defer mu.Unlock()
			if msg.Kind == Error || msg.Kind == Internal {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mu.Lock()
			defer mu.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mu.Lock()
			defer mu.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

func (log Log) AddError(span Span, code Code, text string) {
	log.AddMsg(Msg{Kind: Error, Code: code, Text: text, Span: span})
}

func (log Log) AddErrorWithRelated(span Span, code Code, text string, related ...Related) {
	log.AddMsg(Msg{Kind: Error, Code: code, Text: text, Span: span, Related: related})
}

func (log Log) AddWarning(span Span, code Code, text string) {
	log.AddMsg(Msg{Kind: Warning, Code: code, Text: text, Span: span})
}

func (log Log) AddNote(span Span, text string) {
	log.AddMsg(Msg{Kind: Note, Text: text, Span: span})
}

// AddInternal reports a compiler-internal invariant violation (unexpected
// AST shape) at the offending span instead of silently corrupting
// downstream state or panicking the process (see spec §7).
func (log Log) AddInternal(span Span, text string) {
	log.AddMsg(Msg{Kind: Internal, Code: CodeInternal, Text: text, Span: span})
}
