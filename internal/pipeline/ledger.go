package pipeline

import (
	"context"
	"errors"

	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/sentinel"
)

// The position ledger. Re-sequencing is a full rewrite of every affected
// stage: positions are computed once on an in-memory ordered slice and
// persisted in one batch per stage. O(N) writes per move, chosen for
// simplicity and correctness over delta updates.

// moveWithinTx relocates a card to targetIndex in toStageID. It must run on
// a transactional store handle. Returns the card's final position.
//
// targetIndex is clamped by insertion semantics: anything past the end of
// the destination appends. Negative indexes are rejected by the handler
// before this point.
func moveWithinTx(ctx context.Context, store Store, card *models.Card, toStageID id.StageID, targetIndex int) (int, error) {
	if card.StageID == toStageID {
		return reorderSameStage(ctx, store, card, targetIndex)
	}
	return moveAcrossStages(ctx, store, card, toStageID, targetIndex)
}

func reorderSameStage(ctx context.Context, store Store, card *models.Card, targetIndex int) (int, error) {
	cards, err := store.ListCardsByStage(ctx, card.StageID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load stage cards")
	}
	remaining, moved := removeByID(cards, card.ID)
	if moved == nil {
		return 0, dErrors.New(dErrors.CodeInternal, "card missing from its own stage")
	}
	reordered := insertAt(remaining, moved, targetIndex)
	if err := store.ReorderStage(ctx, card.StageID, orderedIDs(reordered)); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-sequence stage")
	}
	return indexOf(reordered, card.ID), nil
}

func moveAcrossStages(ctx context.Context, store Store, card *models.Card, toStageID id.StageID, targetIndex int) (int, error) {
	sourceCards, err := store.ListCardsByStage(ctx, card.StageID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load source stage cards")
	}
	destCards, err := store.ListCardsByStage(ctx, toStageID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load destination stage cards")
	}

	// Close the gap in the source, then insert into the destination. Both
	// stages are rewritten densely inside the same transaction.
	remaining, moved := removeByID(sourceCards, card.ID)
	if moved == nil {
		return 0, dErrors.New(dErrors.CodeInternal, "card missing from its own stage")
	}
	inserted := insertAt(destCards, moved, targetIndex)

	if err := store.ReorderStage(ctx, card.StageID, orderedIDs(remaining)); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-sequence source stage")
	}
	if err := store.ReorderStage(ctx, toStageID, orderedIDs(inserted)); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-sequence destination stage")
	}
	return indexOf(inserted, card.ID), nil
}

// appendWithinTx places a card at the end of a stage. Used by subscription
// (first stage of the program) and by automatic transitions.
func appendWithinTx(ctx context.Context, store Store, card *models.Card, toStageID id.StageID) (int, error) {
	destCards, err := store.ListCardsByStage(ctx, toStageID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load destination stage cards")
	}
	return moveWithinTx(ctx, store, card, toStageID, len(destCards))
}

// findCardForMove resolves the card or translates the store's sentinel into
// the caller-facing not-found error, before any write happens.
func findCardForMove(ctx context.Context, store Store, cardID id.CardID) (*models.Card, error) {
	card, err := store.FindCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load card")
	}
	return card, nil
}

func removeByID(cards []*models.Card, cardID id.CardID) ([]*models.Card, *models.Card) {
	remaining := make([]*models.Card, 0, len(cards))
	var removed *models.Card
	for _, c := range cards {
		if c.ID == cardID {
			removed = c
			continue
		}
		remaining = append(remaining, c)
	}
	return remaining, removed
}

func insertAt(cards []*models.Card, card *models.Card, index int) []*models.Card {
	if index < 0 {
		index = 0
	}
	if index > len(cards) {
		index = len(cards)
	}
	out := make([]*models.Card, 0, len(cards)+1)
	out = append(out, cards[:index]...)
	out = append(out, card)
	out = append(out, cards[index:]...)
	return out
}

func orderedIDs(cards []*models.Card) []id.CardID {
	ids := make([]id.CardID, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func indexOf(cards []*models.Card, cardID id.CardID) int {
	for i, c := range cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
