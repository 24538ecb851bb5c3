package algorithms

import "donation_backend/internal/models"

// Таблицы переходов. Статус без исходящих переходов считается терминальным.

var approvalTransitions = map[models.ContributionStatus][]models.ContributionStatus{
	models.ContributionStatusPending:   {models.ContributionStatusApproved, models.ContributionStatusRejected},
	models.ContributionStatusApproved:  {models.ContributionStatusCompleted},
	models.ContributionStatusRejected:  nil,
	models.ContributionStatusCompleted: nil,
}

var directTransitions = map[models.ContributionStatus][]models.ContributionStatus{
	models.ContributionStatusPending:     {models.ContributionStatusAccepted, models.ContributionStatusNotReceived},
	models.ContributionStatusAccepted:    nil,
	models.ContributionStatusNotReceived: nil,
}

var offerTransitions = map[models.OfferStatus][]models.OfferStatus{
	models.OfferStatusPending:   {models.OfferStatusConfirmed, models.OfferStatusCancelled},
	models.OfferStatusConfirmed: {models.OfferStatusCompleted, models.OfferStatusCancelled},
	models.OfferStatusCompleted: nil,
	models.OfferStatusCancelled: nil,
}

var requestTransitions = map[models.RequestStatus][]models.RequestStatus{
	models.RequestStatusActive: {models.RequestStatusClosed},
	models.RequestStatusClosed: nil,
}

var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentStatusPending: {models.PaymentStatusSuccess, models.PaymentStatusFailed},
	models.PaymentStatusSuccess: nil,
	models.PaymentStatusFailed:  nil,
}

var pickupTransitions = map[models.PickupStatus][]models.PickupStatus{
	models.PickupStatusScheduled: {models.PickupStatusPickedUp, models.PickupStatusCancelled},
	models.PickupStatusPickedUp:  nil,
	models.PickupStatusCancelled: nil,
}

func contributionTable(p models.Pipeline) map[models.ContributionStatus][]models.ContributionStatus {
	if p == models.PipelineDirect {
		return directTransitions
	}
	return approvalTransitions
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// IsKnownContributionStatus - статус входит в словарь хотя бы одного конвейера
func IsKnownContributionStatus(s models.ContributionStatus) bool {
	_, a := approvalTransitions[s]
	_, d := directTransitions[s]
	return a || d
}

// BelongsToPipeline - статус входит в словарь конкретного конвейера
func BelongsToPipeline(p models.Pipeline, s models.ContributionStatus) bool {
	_, ok := contributionTable(p)[s]
	return ok
}

func IsTerminalContribution(p models.Pipeline, s models.ContributionStatus) bool {
	next, ok := contributionTable(p)[s]
	return ok && len(next) == 0
}

func CanTransitionContribution(p models.Pipeline, from, to models.ContributionStatus) bool {
	return contains(contributionTable(p)[from], to)
}

// CompletionStatus - значение, в которое PICKED_UP переводит взнос
func CompletionStatus(p models.Pipeline) models.ContributionStatus {
	if p == models.PipelineDirect {
		return models.ContributionStatusAccepted
	}
	return models.ContributionStatusCompleted
}

// PositiveOutcome - статус взноса после успешной оплаты
func PositiveOutcome(p models.Pipeline) models.ContributionStatus {
	if p == models.PipelineDirect {
		return models.ContributionStatusAccepted
	}
	return models.ContributionStatusApproved
}

// NegativeOutcome - статус взноса после отказа или неуспешной оплаты
func NegativeOutcome(p models.Pipeline) models.ContributionStatus {
	if p == models.PipelineDirect {
		return models.ContributionStatusNotReceived
	}
	return models.ContributionStatusRejected
}

func IsNegativeOutcome(s models.ContributionStatus) bool {
	return s == models.ContributionStatusRejected || s == models.ContributionStatusNotReceived
}

// PromotesOffer - статус взноса подтверждает родительское предложение
func PromotesOffer(p models.Pipeline, s models.ContributionStatus) bool {
	return p == models.PipelineApproval &&
		(s == models.ContributionStatusApproved || s == models.ContributionStatusCompleted)
}

// ActiveContributionStatuses - нетерминальные статусы, которые держат слот вывоза
func ActiveContributionStatuses() []models.ContributionStatus {
	return []models.ContributionStatus{models.ContributionStatusPending, models.ContributionStatusApproved}
}

func IsTerminalOffer(s models.OfferStatus) bool {
	next, ok := offerTransitions[s]
	return ok && len(next) == 0
}

func CanTransitionOffer(from, to models.OfferStatus) bool {
	return contains(offerTransitions[from], to)
}

func IsTerminalRequest(s models.RequestStatus) bool {
	next, ok := requestTransitions[s]
	return ok && len(next) == 0
}

func CanTransitionRequest(from, to models.RequestStatus) bool {
	return contains(requestTransitions[from], to)
}

func IsTerminalPayment(s models.PaymentStatus) bool {
	next, ok := paymentTransitions[s]
	return ok && len(next) == 0
}

func CanTransitionPayment(from, to models.PaymentStatus) bool {
	return contains(paymentTransitions[from], to)
}

func IsTerminalPickup(s models.PickupStatus) bool {
	next, ok := pickupTransitions[s]
	return ok && len(next) == 0
}

func CanTransitionPickup(from, to models.PickupStatus) bool {
	return contains(pickupTransitions[from], to)
}
