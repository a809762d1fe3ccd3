package models

// Роли, которым разрешён доступ к панели продаж.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User представляет сотрудника, работающего с панелью продаж.
type User struct {
	UUID         string // Уникальный идентификатор пользователя
	Username     string // Имя пользователя (уникальное)
	PasswordHash string // Хэш пароля пользователя
	Role         string // Роль пользователя, admin или staff
}

// LoginRequest данные для входа из JSON-запроса.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
