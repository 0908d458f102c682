// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Confirmer is the operator-confirmation capability the manual-login
// strategy waits on. A CLI binds it to standard input; a service could
// bind it to an external signal or webhook under the same contract.
type Confirmer interface {
	// Confirm blocks until the operator signals that the out-of-band step
	// is complete, or the context is cancelled.
	Confirm(ctx context.Context, prompt string) error
}

// StdinConfirmer prompts on Out and waits for a newline on In.
type StdinConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the prompt and blocks until a line arrives. Reading runs
// in its own goroutine so context cancellation is honored even while the
// operator is away.
func (c StdinConfirmer) Confirm(ctx context.Context, prompt string) error {
	fmt.Fprintf(c.Out, "%s Press Enter to continue... ", prompt)

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(c.In).ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil && err != io.EOF {
			return err
		}
		return nil
	}
}

// NoConfirmer fails the manual strategy immediately. Batch runs that must
// not block on an operator use it.
type NoConfirmer struct{}

func (NoConfirmer) Confirm(context.Context, string) error {
	return fmt.Errorf("no operator available for manual authentication")
}
