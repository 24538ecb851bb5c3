package validator

import (
	"errors"
	"testing"
	"time"

	"donation_backend/internal/models"
	"donation_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
	return vErr.Errors
}

func TestCustomRules(t *testing.T) {
	v := New()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	assert.NoError(t, v.Validate(&dto.SubmitContributionRequest{Quantity: 1, PickupTime: &future}))
	assert.NoError(t, v.Validate(&dto.SubmitContributionRequest{Amount: 10}))

	errs := validationErrors(t, v.Validate(&dto.SubmitContributionRequest{PickupTime: &past}))
	assert.Equal(t, "Must be in the future", errs["pickup_time"])

	errs = validationErrors(t, v.Validate(&dto.UpdatePickupStatusRequest{PickupStatus: "LOST"}))
	assert.Contains(t, errs, "pickup_status")

	assert.NoError(t, v.Validate(&dto.VerifyPaymentRequest{Status: models.PaymentStatusSuccess}))
	errs = validationErrors(t, v.Validate(&dto.VerifyPaymentRequest{Status: "PAID"}))
	assert.Contains(t, errs, "status")

	errs = validationErrors(t, v.Validate(&dto.DonationDetailsRequest{Title: "Coats", Category: "toys"}))
	assert.Equal(t, "Unsupported donation category", errs["category"])

	assert.NoError(t, v.Validate(&dto.VerifyOrganizationRequest{Status: models.VerificationVerified}))
	errs = validationErrors(t, v.Validate(&dto.UpdateOfferStatusRequest{Status: "ARCHIVED"}))
	assert.Contains(t, errs, "status")
}

func TestQueryFieldsUseFormNames(t *testing.T) {
	v := New()

	errs := validationErrors(t, v.Validate(&dto.ContributionListQuery{Status: "SHIPPED"}))
	assert.Contains(t, errs, "status")

	assert.NoError(t, v.Validate(&dto.ContributionListQuery{Status: string(models.ContributionStatusNotReceived)}))
}

func TestRequiredMessage(t *testing.T) {
	errs := validationErrors(t, New().Validate(&dto.BlockRequest{Blocked: true}))
	assert.Equal(t, "This field is required", errs["reason"])
	assert.Contains(t, (&ValidationError{Errors: errs}).Error(), "field 'reason'")
}
