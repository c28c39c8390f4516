package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(&CreateTicketRequest{Title: "x", Priority: "CRITICAL"})

	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
	assert.Equal(t, "is required", domainErr.Details["description"])
	assert.Equal(t, "is required", domainErr.Details["category_id"])
	assert.Equal(t, "is required", domainErr.Details["location_id"])
	assert.Contains(t, domainErr.Details["priority"], "must be one of")
	assert.NotContains(t, domainErr.Details, "title")
}

func TestValidateAcceptsCompleteRequests(t *testing.T) {
	assert.NoError(t, Validate(&LoginRequest{Email: "a@example.com", Password: "pw"}))
	assert.NoError(t, Validate(&CreateTicketRequest{Title: "t", Description: "d", CategoryID: "c", LocationID: "l"}))
	assert.Error(t, Validate(&LoginRequest{Email: "not-an-email", Password: "pw"}))
}
