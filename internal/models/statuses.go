package models

import "strings"

type UserStatus string
type ActorRole string
type UserType string
type VerificationStatus string
type OfferStatus string
type RequestStatus string
type ContributionStatus string
type PaymentStatus string
type PickupStatus string
type Pipeline string
type Category string
type ParentKind string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"

	RoleAdmin        ActorRole = "admin"
	RoleOrganization ActorRole = "organization"
	RoleDonor        ActorRole = "donor"

	UserTypeAdmin        UserType = "admin"
	UserTypeOrganization UserType = "organization"
	UserTypeDonor        UserType = "donor"

	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"

	OfferStatusPending   OfferStatus = "PENDING"
	OfferStatusConfirmed OfferStatus = "CONFIRMED"
	OfferStatusCompleted OfferStatus = "COMPLETED"
	OfferStatusCancelled OfferStatus = "CANCELLED"

	RequestStatusActive RequestStatus = "ACTIVE"
	RequestStatusClosed RequestStatus = "CLOSED"

	// Конвейер A: одобрение, затем вывоз
	ContributionStatusPending   ContributionStatus = "PENDING"
	ContributionStatusApproved  ContributionStatus = "APPROVED"
	ContributionStatusRejected  ContributionStatus = "REJECTED"
	ContributionStatusCompleted ContributionStatus = "COMPLETED"
	// Конвейер B: прямое принятие
	ContributionStatusAccepted    ContributionStatus = "ACCEPTED"
	ContributionStatusNotReceived ContributionStatus = "NOT_RECEIVED"

	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"

	PickupStatusScheduled PickupStatus = "SCHEDULED"
	PickupStatusPickedUp  PickupStatus = "PICKED_UP"
	PickupStatusCancelled PickupStatus = "CANCELLED"

	PipelineApproval Pipeline = "approval"
	PipelineDirect   Pipeline = "direct"

	CategoryFood            Category = "food"
	CategoryClothes         Category = "clothes"
	CategoryBooks           Category = "books"
	CategoryMedicalSupplies Category = "medical_supplies"
	CategoryHousehold       Category = "household"
	CategoryOtherGoods      Category = "other_goods"
	CategoryFunds           Category = "funds"

	ParentOffer   ParentKind = "offer"
	ParentRequest ParentKind = "request"
)

var physicalCategories = map[Category]bool{
	CategoryFood:            true,
	CategoryClothes:         true,
	CategoryBooks:           true,
	CategoryMedicalSupplies: true,
	CategoryHousehold:       true,
	CategoryOtherGoods:      true,
}

// IsValid - категория входит в закрытый список
func (c Category) IsValid() bool {
	return c == CategoryFunds || physicalCategories[c]
}

// RequiresPickup - для физических товаров нужен вывоз
func (c Category) RequiresPickup() bool {
	return physicalCategories[c]
}

// IsFunds - денежное пожертвование, требует платежных реквизитов
func (c Category) IsFunds() bool {
	return c == CategoryFunds
}

// UserType возвращает тип получателя уведомлений для роли
func (r ActorRole) UserType() UserType {
	switch r {
	case RoleAdmin:
		return UserTypeAdmin
	case RoleOrganization:
		return UserTypeOrganization
	default:
		return UserTypeDonor
	}
}

// NormalizeRole приводит строку роли из токена к закрытому перечислению.
// Единственная точка нормализации, дальше код сравнивает только ActorRole.
func NormalizeRole(raw string) (ActorRole, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "administrator", "superadmin":
		return RoleAdmin, true
	case "organization", "organisation", "org":
		return RoleOrganization, true
	case "donor", "user":
		return RoleDonor, true
	}
	return "", false
}

// Pipeline определяет конвейер статусов взноса по типу родительской записи
func (k ParentKind) Pipeline() Pipeline {
	if k == ParentRequest {
		return PipelineDirect
	}
	return PipelineApproval
}
