package pipeline

import "strings"

// Command is an operator input. Anything unrecognized is None.
type Command int

const (
	None Command = iota
	Quit
	ToggleRecording
)

func (c Command) String() string {
	switch c {
	case Quit:
		return "quit"
	case ToggleRecording:
		return "toggle"
	default:
		return "none"
	}
}

// Key bindings.
const (
	KeyQuit   = 'q'
	KeyToggle = 'r'
)

// ParseKey maps a key code from the preview window to a command.
func ParseKey(key int) Command {
	if key < 0 {
		return None
	}
	switch key & 0xFF {
	case KeyQuit:
		return Quit
	case KeyToggle:
		return ToggleRecording
	default:
		return None
	}
}

// ParseCommand maps a command name ("quit", "toggle") to a command.
func ParseCommand(name string) Command {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "quit", "q":
		return Quit
	case "toggle", "record", "r":
		return ToggleRecording
	default:
		return None
	}
}

// CommandSource is polled once per iteration and must not block.
type CommandSource interface {
	Poll() Command
}

// ChanSource queues commands from other goroutines (web, signals) for
// the loop to pick up on its next poll.
type ChanSource struct {
	ch chan Command
}

// NewChanSource creates a queue holding up to size pending commands.
func NewChanSource(size int) *ChanSource {
	if size < 1 {
		size = 1
	}
	return &ChanSource{ch: make(chan Command, size)}
}

// Send enqueues a command. Returns false when the queue is full or the
// command is None.
func (s *ChanSource) Send(c Command) bool {
	if c == None {
		return false
	}
	select {
	case s.ch <- c:
		return true
	default:
		return false
	}
}

// Poll implements CommandSource.
func (s *ChanSource) Poll() Command {
	select {
	case c := <-s.ch:
		return c
	default:
		return None
	}
}

// Sources polls each source in order and returns the first command.
type Sources []CommandSource

// Poll implements CommandSource.
func (ss Sources) Poll() Command {
	for _, s := range ss {
		if s == nil {
			continue
		}
		if c := s.Poll(); c != None {
			return c
		}
	}
	return None
}
