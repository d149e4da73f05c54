// Package cli is the interactive console of a running node.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iudanet/vasasync/internal/iocli"
	"github.com/iudanet/vasasync/internal/models"
	"github.com/iudanet/vasasync/internal/sync"
)

//go:generate moq -out engine_mock.go . Engine Entries

// Engine is the part of the sync engine the console drives
type Engine interface {
	SubmitEntry(ctx context.Context, entry *models.Entry) error
	RequestFullSync(ctx context.Context) error
	State() sync.State
	GroupID() string
	Peers() []string
	Pending() []*models.Entry
}

// Entries reads the group's reconciled entries
type Entries interface {
	ListAll(ctx context.Context, groupID string) ([]*models.Entry, error)
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

const prompt = "vasasync> "

// Session reads commands line by line and runs them against the engine
type Session struct {
	engine   Engine
	entries  Entries
	io       iocli.IO
	userID   string
	userName string
}

func New(engine Engine, entries Entries, console iocli.IO, userID, userName string) *Session {
	return &Session{
		engine:   engine,
		entries:  entries,
		io:       console,
		userID:   userID,
		userName: userName,
	}
}

// Run serves commands until quit, end of input or ctx cancellation.
// Command errors are printed and do not end the session.
func (s *Session) Run(ctx context.Context) error {
	s.io.Println("Type 'help' for a list of commands.")

	for ctx.Err() == nil {
		line, err := s.io.ReadInput(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}
		if line == "" {
			continue
		}

		quit, err := s.Execute(ctx, line)
		if err != nil {
			s.io.Printf("Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return nil
}

// Execute runs one command line. quit is true for quit and exit.
func (s *Session) Execute(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "help":
		s.printHelp()
	case "add":
		err = s.runAdd(ctx, fields[1:])
	case "sync":
		err = s.runSync(ctx)
	case "list":
		err = s.runList(ctx)
	case "pending":
		s.runPending()
	case "status":
		s.runStatus()
	case "quit", "exit":
		return true, nil
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
	return false, err
}

func (s *Session) printHelp() {
	s.io.Println("Commands:")
	s.io.Println("  add <vasa> <emo> [notes]  record a calf marking")
	s.io.Println("  sync                      ask the host for all group entries")
	s.io.Println("  list                      show entries of the group")
	s.io.Println("  pending                   show entries not yet confirmed by the host")
	s.io.Println("  status                    show role, group and linked devices")
	s.io.Println("  quit                      leave the session")
}
