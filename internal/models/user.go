// Package models содержит доменную модель учётной записи: пользователя,
// проекцию сессии без пароля и структуры запросов регистрации и обновления профиля.
// Структуры используются в бизнес‑логике и при сериализации в key-value хранилище.
package models

import "strings"

// User представляет зарегистрированного пользователя.
// Пароль хранится в открытом виде.
type User struct {
	ID       int64  `json:"id"`                // Уникальный монотонный идентификатор
	Name     string `json:"name"`              // Отображаемое имя
	Email    string `json:"email"`             // Email, уникален без учёта регистра
	Password string `json:"password"`          // Пароль в открытом виде
	Phone    string `json:"phone,omitempty"`   // Телефон, 10 цифр или пусто
	Address  string `json:"address,omitempty"` // Адрес, произвольная строка
}

// Session — проекция пользователя без пароля, описывающая текущую сессию.
type Session struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Session возвращает проекцию пользователя для текущей сессии.
func (u User) Session() *Session {
	return &Session{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
	}
}

// EmailMatches сравнивает email пользователя без учёта регистра.
func (u User) EmailMatches(email string) bool {
	return strings.EqualFold(u.Email, email)
}

// FirstName возвращает первое слово имени для приветствия.
func (s Session) FirstName() string {
	fields := strings.Fields(s.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Registration — данные для регистрации нового пользователя.
type Registration struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// ProfileUpdate — запрос на изменение профиля.
// Password == nil или пустая строка означает «оставить текущий пароль».
type ProfileUpdate struct {
	ID       int64
	Name     string
	Phone    string
	Address  string
	Password *string
}

// NewPassword возвращает новый пароль и признак того, что его нужно применить.
func (p ProfileUpdate) NewPassword() (string, bool) {
	if p.Password == nil || *p.Password == "" {
		return "", false
	}
	return *p.Password, true
}
