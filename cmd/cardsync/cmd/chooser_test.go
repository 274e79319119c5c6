package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/reconcile"
)

func promptGroup() *reconcile.Group {
	incoming := contacts.New()
	incoming.DisplayName = "Jane Doe"

	a := contacts.New()
	a.DisplayName = "Jane A"
	a.Provenance = &contacts.Provenance{LocationID: "loc1", LocationName: "Org1", ExternalID: "e1"}
	b := contacts.New()
	b.DisplayName = "Jane B"
	b.Provenance = &contacts.Provenance{LocationID: "loc2", LocationName: "Vendors", ExternalID: "e2"}

	return &reconcile.Group{Incoming: incoming, Existing: []*contacts.Record{a, b}, Key: "jane@example.com"}
}

func TestPromptChooserSelection(t *testing.T) {
	var out strings.Builder
	chooser := newPromptChooser(strings.NewReader("2\n"), &out)

	choice, err := chooser.Choose(context.Background(), &reconcile.DisambiguationRequest{
		Group:          promptGroup(),
		Policy:         reconcile.PolicyMerge,
		NeedsSelection: true,
	})
	require.NoError(t, err)
	require.NotNil(t, choice.Selected)
	assert.Equal(t, "Jane B", choice.Selected.DisplayName)
	assert.Contains(t, out.String(), "[1] Jane A (Org1)")
	assert.Contains(t, out.String(), "[2] Jane B (Vendors)")
}

func TestPromptChooserAskThenSelect(t *testing.T) {
	var out strings.Builder
	chooser := newPromptChooser(strings.NewReader("m\n1\n"), &out)

	choice, err := chooser.Choose(context.Background(), &reconcile.DisambiguationRequest{
		Group:  promptGroup(),
		Policy: reconcile.PolicyAsk,
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.PolicyMerge, choice.Policy)
	require.NotNil(t, choice.Selected)
	assert.Equal(t, "Jane A", choice.Selected.DisplayName)
}

func TestPromptChooserSkipNeedsNoSelection(t *testing.T) {
	var out strings.Builder
	chooser := newPromptChooser(strings.NewReader("s\n"), &out)

	choice, err := chooser.Choose(context.Background(), &reconcile.DisambiguationRequest{
		Group:  promptGroup(),
		Policy: reconcile.PolicyAsk,
	})
	require.NoError(t, err)
	assert.Equal(t, reconcile.PolicySkip, choice.Policy)
	assert.Nil(t, choice.Selected)
}

func TestPromptChooserRetriesUnrecognizedAnswer(t *testing.T) {
	var out strings.Builder
	chooser := newPromptChooser(strings.NewReader("x\n9\n2\n"), &out)

	choice, err := chooser.Choose(context.Background(), &reconcile.DisambiguationRequest{
		Group:          promptGroup(),
		Policy:         reconcile.PolicyOverwrite,
		NeedsSelection: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane B", choice.Selected.DisplayName)
	assert.Contains(t, out.String(), "unrecognized answer")
}

func TestPromptChooserClosedInput(t *testing.T) {
	var out strings.Builder
	chooser := newPromptChooser(strings.NewReader(""), &out)

	_, err := chooser.Choose(context.Background(), &reconcile.DisambiguationRequest{
		Group:          promptGroup(),
		Policy:         reconcile.PolicyMerge,
		NeedsSelection: true,
	})
	require.Error(t, err)
}
