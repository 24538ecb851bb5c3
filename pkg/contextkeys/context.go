package contextkeys

// Ключи gin.Context, которые выставляет middleware аутентификации
const (
	UserID = "userID"
	Role   = "role"
	Actor  = "actor"
)
