package models

// User - учетная запись. Токены и пароли выдает внешний слой аутентификации,
// сервис сам создает только первого администратора.
type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         ActorRole  `gorm:"type:varchar(20);not null;index"`
	Status       UserStatus `gorm:"type:varchar(20);default:'active'"`
}

// Actor - нормализованная личность, которая выполняет операцию.
// ID - id профиля организации или донора, для администратора совпадает с UserID.
type Actor struct {
	ID     string
	UserID string
	Role   ActorRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// OwnsOrganization - актор является организацией-владельцем
func (a Actor) OwnsOrganization(organizationID string) bool {
	return a.Role == RoleOrganization && a.ID == organizationID
}
