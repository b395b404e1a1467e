package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/walk"
)

// promptConfirmer asks on out and reads answers from in. An empty answer
// means yes. End of input, or ctx being done, cancels.
func promptConfirmer(in io.Reader, out io.Writer) walk.Confirmer {
	reader := bufio.NewReader(in)
	return walk.ConfirmFunc(func(ctx context.Context, question string) (bool, error) {
		type answer struct {
			line string
			err  error
		}
		for {
			fmt.Fprintf(out, "%s? [Y/n] ", question)

			ch := make(chan answer, 1)
			go func() {
				line, err := reader.ReadString('\n')
				ch <- answer{line, err}
			}()

			var a answer
			select {
			case <-ctx.Done():
				return false, core.ErrCancelled
			case a = <-ch:
			}

			reply := strings.ToLower(strings.TrimSpace(a.line))
			if a.err != nil && reply == "" {
				return false, core.ErrCancelled
			}
			switch reply {
			case "", "y", "yes":
				return true, nil
			case "n", "no":
				return false, nil
			}
			fmt.Fprintln(out, "Please answer y or n.")
		}
	})
}
