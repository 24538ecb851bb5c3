package validator

import (
	"log"
	"time"

	"donation_backend/internal/algorithms"
	"donation_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка регистрации - ошибка сборки приложения
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// Правила, основанные на statuses.go
	mustRegister("is-category", validateCategory)
	mustRegister("is-contribution-status", validateContributionStatus)
	mustRegister("is-payment-status", validatePaymentStatus)
	mustRegister("is-pickup-status", validatePickupStatus)
	mustRegister("is-offer-status", validateOfferStatus)
	mustRegister("is-verification-status", validateVerificationStatus)

	// 'future-time': время строго позже текущего
	mustRegister("future-time", validateFutureTime)
}

// --- Функции валидации ---
// Пустые значения пропускаются, для этого есть 'required'.

func validateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.Category(value).IsValid()
}

func validateContributionStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || algorithms.IsKnownContributionStatus(models.ContributionStatus(value))
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.PaymentStatus(value) {
	case models.PaymentStatusPending, models.PaymentStatusSuccess, models.PaymentStatusFailed:
		return true
	default:
		return false
	}
}

func validatePickupStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.PickupStatus(value) {
	case models.PickupStatusScheduled, models.PickupStatusPickedUp, models.PickupStatusCancelled:
		return true
	default:
		return false
	}
}

func validateOfferStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.OfferStatus(value) {
	case models.OfferStatusPending, models.OfferStatusConfirmed, models.OfferStatusCompleted, models.OfferStatusCancelled:
		return true
	default:
		return false
	}
}

func validateVerificationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.VerificationStatus(value) {
	case models.VerificationPending, models.VerificationVerified, models.VerificationRejected:
		return true
	default:
		return false
	}
}

func validateFutureTime(fl validator.FieldLevel) bool {
	switch value := fl.Field().Interface().(type) {
	case time.Time:
		return value.IsZero() || value.After(time.Now())
	case *time.Time:
		return value == nil || value.After(time.Now())
	default:
		return false
	}
}
