package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rmejia/cobranza-api/internal/models"
)

func TestRecognize_PendingToComplete(t *testing.T) {
	c := &models.Collection{Status: models.CollectionStatusPending, Kind: models.CollectionKindCredit}
	m := NewCollectionFSM(c)

	err := m.Recognize(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.CollectionStatusComplete, c.Status)

	// Complete is terminal.
	err = m.Recognize(context.Background())
	assert.Error(t, err)
}

func TestRecognize_LegacyStatusTreatedAsComplete(t *testing.T) {
	c := &models.Collection{Status: "collected", Kind: models.CollectionKindCredit}
	m := NewCollectionFSM(c)

	assert.Equal(t, models.CollectionStatusComplete, m.Current())
	assert.Error(t, m.Recognize(context.Background()))
}

func TestRecordCheques_ChequeKindOnly(t *testing.T) {
	cheque := &models.Collection{Status: models.CollectionStatusPending, Kind: models.CollectionKindCheque}
	err := NewCollectionFSM(cheque).RecordCheques(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.CollectionStatusComplete, cheque.Status)

	credit := &models.Collection{Status: models.CollectionStatusPending, Kind: models.CollectionKindCredit}
	err = NewCollectionFSM(credit).RecordCheques(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.CollectionStatusPending, credit.Status)
}

func TestConvert_CreditKindOnly(t *testing.T) {
	credit := &models.Collection{Status: models.CollectionStatusPending, Kind: models.CollectionKindCredit}
	err := NewCollectionFSM(credit).Convert(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.CollectionStatusComplete, credit.Status)

	cheque := &models.Collection{Status: models.CollectionStatusPending, Kind: models.CollectionKindCheque}
	err = NewCollectionFSM(cheque).Convert(context.Background())
	assert.Error(t, err)
}

func TestCan(t *testing.T) {
	pending := NewCollectionFSM(&models.Collection{Status: models.CollectionStatusPending})
	assert.True(t, pending.Can("recognize"))

	complete := NewCollectionFSM(&models.Collection{Status: models.CollectionStatusComplete})
	assert.False(t, complete.Can("recognize"))
	assert.False(t, complete.Can("convert"))
}
