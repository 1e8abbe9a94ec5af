package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/babycare/internal/store"
)

// Sender delivers one text message to one chat recipient.
type Sender interface {
	Send(ctx context.Context, recipientID int64, text string) error
}

// Result summarises one fan-out.
type Result struct {
	Attempted int
	Delivered int
	Failed    []int64
}

// Dispatcher fans a message out to every member of a family. Each recipient
// gets a single attempt bounded by the send timeout; a failure is logged and
// never affects the other recipients.
type Dispatcher struct {
	members     *store.FamilyStore
	sender      Sender
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher. A non-positive concurrency sends to one
// recipient at a time.
func NewDispatcher(members *store.FamilyStore, sender Sender, timeout time.Duration, concurrency int, logger *slog.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		members:     members,
		sender:      sender,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Dispatch sends text to every member of the family. The returned error is
// only set when the member list itself could not be loaded.
func (d *Dispatcher) Dispatch(ctx context.Context, familyID int64, text string) (Result, error) {
	members, err := d.members.ListMembers(familyID)
	if err != nil {
		return Result{}, fmt.Errorf("load members of family %d: %w", familyID, err)
	}

	var (
		mu  sync.Mutex
		res = Result{Attempted: len(members)}
		g   errgroup.Group
	)
	g.SetLimit(d.concurrency)

	for _, m := range members {
		g.Go(func() error {
			err := d.sendOne(ctx, m.UserID, text)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed = append(res.Failed, m.UserID)
				d.logger.Warn("delivery failed", "family_id", familyID, "recipient", m.UserID, "error", err)
				return nil
			}
			res.Delivered++
			return nil
		})
	}
	g.Wait()

	return res, nil
}

// sendOne returns once the send finishes or the timeout expires, whichever
// comes first. A send that ignores its context is abandoned, not awaited.
func (d *Dispatcher) sendOne(ctx context.Context, recipientID int64, text string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("send panicked: %v", p)
			}
		}()
		done <- d.sender.Send(ctx, recipientID, text)
	}()

	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send to %d: %w", recipientID, ctx.Err())
	}
}
