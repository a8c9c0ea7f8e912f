package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventType_IsQuotationEvent(t *testing.T) {
	assert.True(t, EventQuotationCreated.IsQuotationEvent())
	assert.True(t, EventQuotationSent.IsQuotationEvent())
	assert.True(t, EventQuotationApproved.IsQuotationEvent())
	assert.False(t, EventLeadAssigned.IsQuotationEvent())
	assert.False(t, EventLeadStatusChanged.IsQuotationEvent())
}
