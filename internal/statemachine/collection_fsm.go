package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rmejia/cobranza-api/internal/models"
)

// CollectionFSM wraps a collection with its lifecycle state machine.
// "complete" is terminal: a collection is never resurrected to pending.
type CollectionFSM struct {
	collection *models.Collection
	fsm        *fsm.FSM
}

// NewCollectionFSM creates a new collection state machine
func NewCollectionFSM(collection *models.Collection) *CollectionFSM {
	cfsm := &CollectionFSM{
		collection: collection,
	}

	cfsm.fsm = fsm.NewFSM(
		models.NormalizeCollectionStatus(collection.Status),
		fsm.Events{
			// pending → complete, amount applied to the order's paid total
			{Name: "recognize", Src: []string{models.CollectionStatusPending}, Dst: models.CollectionStatusComplete},

			// pending → complete, backed by recorded cheques (kind unchanged)
			{Name: "record_cheques", Src: []string{models.CollectionStatusPending}, Dst: models.CollectionStatusComplete},

			// pending(credit) → complete, converted to cheque kind or merged away
			{Name: "convert", Src: []string{models.CollectionStatusPending}, Dst: models.CollectionStatusComplete},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Recognize transitions the collection to complete via recognition
func (c *CollectionFSM) Recognize(ctx context.Context) error {
	if !c.collection.MayRecognize() {
		return fmt.Errorf("collection cannot be recognized in current state: %s", c.collection.Status)
	}

	if err := c.fsm.Event(ctx, "recognize"); err != nil {
		return fmt.Errorf("failed to recognize collection: %w", err)
	}

	c.collection.Status = c.fsm.Current()
	return nil
}

// RecordCheques transitions the collection to complete via cheque recording
func (c *CollectionFSM) RecordCheques(ctx context.Context) error {
	if !c.collection.MayRecordCheques(false) {
		return fmt.Errorf("cheques cannot be recorded in current state: %s", c.collection.Status)
	}

	if err := c.fsm.Event(ctx, "record_cheques"); err != nil {
		return fmt.Errorf("failed to record cheques: %w", err)
	}

	c.collection.Status = c.fsm.Current()
	return nil
}

// Convert transitions a credit collection to complete as part of a
// credit-to-cheque conversion. The kind flip is the engine's responsibility;
// the machine only owns the status.
func (c *CollectionFSM) Convert(ctx context.Context) error {
	if !c.collection.MayRecordCheques(true) {
		return fmt.Errorf("collection cannot be converted in current state: %s/%s", c.collection.Kind, c.collection.Status)
	}

	if err := c.fsm.Event(ctx, "convert"); err != nil {
		return fmt.Errorf("failed to convert collection: %w", err)
	}

	c.collection.Status = c.fsm.Current()
	return nil
}

// Current returns the current state
func (c *CollectionFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *CollectionFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
