package services

import (
	"time"

	"donation_backend/internal/repositories"
	"donation_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	LifecycleService    LifecycleService
	VerificationService VerificationService
	DonationService     DonationService
	NotificationService NotificationService
}

// Dependencies - репозитории и инфраструктура для сборки сервисов
type Dependencies struct {
	Transactor    repositories.Transactor
	Users         repositories.UserRepository
	Organizations repositories.OrganizationRepository
	Donors        repositories.DonorRepository
	Donations     repositories.DonationRepository
	Contributions repositories.ContributionRepository
	Payments      repositories.PaymentRepository
	Notifications repositories.NotificationRepository

	Locker     storage.SubmissionLocker
	Dispatcher Dispatcher

	PickupBuffer      time.Duration
	SubmissionLockTTL time.Duration
}

// NewServiceContainer собирает сервисы
func NewServiceContainer(deps Dependencies) *ServiceContainer {
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = NoopDispatcher{}
	}

	guard := NewIdempotencyGuard(deps.Contributions, deps.Payments, deps.Locker, deps.SubmissionLockTTL)
	scheduler := NewConflictScheduler(deps.Contributions, deps.PickupBuffer)

	return &ServiceContainer{
		LifecycleService: NewLifecycleService(
			deps.Transactor,
			deps.Contributions,
			deps.Payments,
			deps.Donations,
			deps.Organizations,
			deps.Donors,
			guard,
			scheduler,
			dispatcher,
		),
		VerificationService: NewVerificationService(
			deps.Transactor,
			deps.Users,
			deps.Organizations,
			deps.Donors,
			deps.Contributions,
			deps.Payments,
			deps.Donations,
			dispatcher,
		),
		DonationService:     NewDonationService(deps.Transactor, deps.Donations, deps.Organizations, dispatcher),
		NotificationService: NewNotificationService(deps.Transactor, deps.Notifications),
	}
}
