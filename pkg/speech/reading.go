package speech

import (
	"regexp"
	"strings"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

type ReadingState string

const (
	ReadingNoSession ReadingState = "no_session"
	ReadingPlaying   ReadingState = "reading"
	ReadingPaused    ReadingState = "paused"
)

// Narrator is the part of the Sequencer the Reader drives.
type Narrator interface {
	Narrate(text string, onComplete func()) *Utterance
	Cancel() bool
}

// Reader plays a text back one sentence at a time. Pausing keeps the
// cursor on the chunk in progress so Resume repeats that chunk.
type Reader struct {
	narrator Narrator
	onFinish func()

	chunks []string
	cursor int
	active bool
	paused bool
}

func NewReader(narrator Narrator) *Reader {
	return &Reader{narrator: narrator}
}

// OnFinish registers a hook run when every chunk has been played.
func (r *Reader) OnFinish(fn func()) {
	r.onFinish = fn
}

// SplitChunks splits text after each run of sentence punctuation. Text
// after the last terminator becomes a final chunk and text without any
// terminator is returned whole.
func SplitChunks(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	locs := sentencePattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	chunks := make([]string, 0, len(locs)+1)
	for _, loc := range locs {
		chunks = append(chunks, text[loc[0]:loc[1]])
	}
	if rest := text[locs[len(locs)-1][1]:]; strings.TrimSpace(rest) != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// Start replaces any running session and begins playback at chunk 0.
func (r *Reader) Start(text string) {
	if r.active {
		r.narrator.Cancel()
	}
	r.chunks = SplitChunks(text)
	r.cursor = 0
	r.active = true
	r.paused = false
	r.step()
}

func (r *Reader) step() {
	if !r.active || r.paused {
		return
	}
	if r.cursor >= len(r.chunks) {
		r.finish()
		return
	}
	r.narrator.Narrate(r.chunks[r.cursor], r.advance)
}

func (r *Reader) advance() {
	if !r.active || r.paused {
		return
	}
	r.cursor++
	r.step()
}

func (r *Reader) finish() {
	r.reset()
	if r.onFinish != nil {
		r.onFinish()
	}
}

func (r *Reader) Pause() bool {
	if !r.active || r.paused {
		return false
	}
	r.paused = true
	r.narrator.Cancel()
	return true
}

func (r *Reader) Resume() bool {
	if !r.active || !r.paused {
		return false
	}
	r.paused = false
	r.step()
	return true
}

// Stop ends the session. Calling it without a session does nothing.
func (r *Reader) Stop() {
	if !r.active {
		r.reset()
		return
	}
	r.reset()
	r.narrator.Cancel()
}

func (r *Reader) reset() {
	r.chunks = nil
	r.cursor = 0
	r.active = false
	r.paused = false
}

func (r *Reader) Active() bool { return r.active }
func (r *Reader) Paused() bool { return r.paused }
func (r *Reader) Cursor() int  { return r.cursor }

func (r *Reader) Chunks() []string {
	out := make([]string, len(r.chunks))
	copy(out, r.chunks)
	return out
}

func (r *Reader) State() ReadingState {
	switch {
	case !r.active:
		return ReadingNoSession
	case r.paused:
		return ReadingPaused
	default:
		return ReadingPlaying
	}
}
