package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/vasasync/internal/models"
	"github.com/iudanet/vasasync/internal/validation"
)

func (s *Session) runAdd(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: add <vasa> <emo> [notes]", ErrUsage)
	}

	marking := models.Marking{
		VasaNumber: args[0],
		EmoNumber:  args[1],
		Notes:      strings.Join(args[2:], " "),
	}
	if err := validation.ValidateMarking(marking); err != nil {
		return err
	}

	// вне группы запись сохраняется локально и уйдет при следующем join
	entry := models.NewEntry(s.engine.GroupID(), s.userID, s.userName, marking.Payload())
	if err := s.engine.SubmitEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to submit entry: %w", err)
	}

	s.io.Printf("Entry %s added: vasa %s, emo %s\n", entry.ID, marking.VasaNumber, marking.EmoNumber)
	return nil
}

func (s *Session) runSync(ctx context.Context) error {
	if err := s.engine.RequestFullSync(ctx); err != nil {
		return fmt.Errorf("failed to request sync: %w", err)
	}
	s.io.Println("Full sync requested.")
	return nil
}

func (s *Session) runList(ctx context.Context) error {
	groupID := s.engine.GroupID()
	if groupID == "" {
		s.io.Println("Not in a group. Use 'host' or 'join' to start one.")
		return nil
	}

	entries, err := s.entries.ListAll(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	if len(entries) == 0 {
		s.io.Println("No entries in group " + groupID + ".")
		return nil
	}

	s.io.Printf("Group %s, %d entries:\n", groupID, len(entries))
	for i, entry := range entries {
		s.printEntry(i+1, entry)
	}
	return nil
}

func (s *Session) runPending() {
	pending := s.engine.Pending()
	if len(pending) == 0 {
		s.io.Println("All entries are synced.")
		return
	}

	s.io.Printf("%d entries wait for the host:\n", len(pending))
	for i, entry := range pending {
		s.printEntry(i+1, entry)
	}
}

func (s *Session) runStatus() {
	s.io.Printf("State: %s\n", s.engine.State())
	if groupID := s.engine.GroupID(); groupID != "" {
		s.io.Printf("Group: %s\n", groupID)
	}

	peers := s.engine.Peers()
	if len(peers) == 0 {
		s.io.Println("No linked devices.")
		return
	}
	s.io.Printf("Linked devices: %s\n", strings.Join(peers, ", "))
}

func (s *Session) printEntry(n int, entry *models.Entry) {
	m := entry.Marking()
	author := entry.CreatorName
	if author == "" {
		author = entry.CreatedBy
	}

	s.io.Printf("%d. vasa %s, emo %s (%s)\n", n, m.VasaNumber, m.EmoNumber, author)
	if m.Notes != "" {
		s.io.Printf("   %s\n", m.Notes)
	}
}
