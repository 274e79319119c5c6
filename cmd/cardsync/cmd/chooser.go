package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/errors"
	"github.com/cardsync/cardsync/pkg/reconcile"
)

// promptChooser resolves disambiguation requests on a terminal. The
// reconciliation core itself never performs I/O; it yields a request
// and this chooser answers it.
type promptChooser struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPromptChooser(in io.Reader, out io.Writer) *promptChooser {
	return &promptChooser{in: bufio.NewScanner(in), out: out}
}

// Choose implements reconcile.Chooser.
func (c *promptChooser) Choose(_ context.Context, req *reconcile.DisambiguationRequest) (*reconcile.Choice, error) {
	c.printGroup(req.Group)

	choice := &reconcile.Choice{Policy: req.Policy}
	if req.Policy == reconcile.PolicyAsk {
		policy, err := c.askPolicy()
		if err != nil {
			return nil, err
		}
		choice.Policy = policy
	}

	needsSelection := req.NeedsSelection ||
		((choice.Policy == reconcile.PolicyMerge || choice.Policy == reconcile.PolicyOverwrite) &&
			len(req.Group.Existing) > 1)
	if needsSelection {
		selected, err := c.askSelection(req.Group.Existing)
		if err != nil {
			return nil, err
		}
		choice.Selected = selected
	}
	return choice, nil
}

func (c *promptChooser) printGroup(group *reconcile.Group) {
	fmt.Fprintf(c.out, "\n%q matches %d existing record(s) (key %s):\n",
		group.Incoming.DisplayName, len(group.Existing), group.Key)
	for i, match := range group.Existing {
		location := "unknown location"
		if match.Provenance != nil {
			location = match.Provenance.LocationName
			if location == "" {
				location = match.Provenance.LocationID
			}
		}
		fmt.Fprintf(c.out, "  [%d] %s (%s)\n", i+1, match.DisplayName, location)
	}
}

func (c *promptChooser) askPolicy() (reconcile.Policy, error) {
	for {
		fmt.Fprint(c.out, "resolve: [s]kip, [m]erge, [o]verwrite, [c]onsolidate, create [n]ew? ")
		answer, err := c.readLine()
		if err != nil {
			return "", err
		}
		switch strings.ToLower(answer) {
		case "s", "skip":
			return reconcile.PolicySkip, nil
		case "m", "merge":
			return reconcile.PolicyMerge, nil
		case "o", "overwrite":
			return reconcile.PolicyOverwrite, nil
		case "c", "consolidate":
			return reconcile.PolicyConsolidate, nil
		case "n", "new", "create":
			return reconcile.PolicyCreateAnyway, nil
		}
		fmt.Fprintln(c.out, "unrecognized answer")
	}
}

func (c *promptChooser) askSelection(existing []*contacts.Record) (*contacts.Record, error) {
	if len(existing) == 1 {
		return existing[0], nil
	}
	for {
		fmt.Fprintf(c.out, "which record (1-%d)? ", len(existing))
		answer, err := c.readLine()
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(answer))
		if err == nil && n >= 1 && n <= len(existing) {
			return existing[n-1], nil
		}
		fmt.Fprintln(c.out, "unrecognized answer")
	}
}

func (c *promptChooser) readLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", errors.WrapIO("read", "stdin", err)
		}
		return "", errors.New("input closed before the duplicate was resolved")
	}
	return strings.TrimSpace(c.in.Text()), nil
}
