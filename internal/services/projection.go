package services

import (
	"sync"

	"github.com/rmejia/cobranza-api/internal/models"
)

// Projection is the in-memory view of collections the presentation layer
// reads. The lifecycle engine keeps it consistent with store outcomes. The
// only optimistic change allowed is the conversion kind flip, which is applied
// through BeginConversion and reverted through AbortConversion when the caller
// abandons or the store call fails.
type Projection struct {
	mu   sync.RWMutex
	byID map[string]models.Collection
}

// NewProjection creates an empty projection.
func NewProjection() *Projection {
	return &Projection{byID: make(map[string]models.Collection)}
}

// Load replaces the projection contents with a fresh store snapshot.
func (p *Projection) Load(collections []models.Collection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID = make(map[string]models.Collection, len(collections))
	for _, c := range collections {
		p.byID[c.ID] = c
	}
}

// Get returns a copy of one collection.
func (p *Projection) Get(id string) (models.Collection, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.byID[id]
	return c, ok
}

// Apply upserts a collection after a confirmed store write.
func (p *Projection) Apply(c models.Collection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[c.ID] = c
}

// Remove drops a collection after a confirmed store delete.
func (p *Projection) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byID, id)
}

// Snapshot returns all collections sorted by effective date descending.
func (p *Projection) Snapshot() []models.Collection {
	p.mu.RLock()
	out := make([]models.Collection, 0, len(p.byID))
	for _, c := range p.byID {
		out = append(out, c)
	}
	p.mu.RUnlock()
	return SortByEffectiveDate(out)
}

// ConversionPatch records the optimistic change made when conversion mode is
// entered, so it can be reverted if the caller abandons or the commit fails.
type ConversionPatch struct {
	CollectionID string `json:"collection_id"`
	PriorKind    string `json:"prior_kind"`
}

// BeginConversion optimistically flips a pending credit collection to cheque
// kind in the view and returns the patch needed to undo it.
func (p *Projection) BeginConversion(collectionID string) (*ConversionPatch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.byID[collectionID]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.MayPartialPay() { // pending credit; same precondition as conversion entry
		return nil, ErrInvalidState
	}

	patch := &ConversionPatch{CollectionID: c.ID, PriorKind: c.Kind}
	c.Kind = models.CollectionKindCheque
	p.byID[c.ID] = c
	return patch, nil
}

// AbortConversion restores the view to its pre-conversion state.
func (p *Projection) AbortConversion(patch *ConversionPatch) {
	if patch == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.byID[patch.CollectionID]
	if !ok {
		return
	}
	c.Kind = patch.PriorKind
	p.byID[c.ID] = c
}
