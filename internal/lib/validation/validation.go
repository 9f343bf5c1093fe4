// Package validation содержит чистые предикаты для полей учётной записи:
// формат email, сложность пароля и формат телефона. Предикаты также
// регистрируются как теги go-playground/validator для структур форм.
package validation

import (
	"regexp"
	"unicode/utf16"

	"github.com/go-playground/validator"
)

// Теги, под которыми предикаты доступны в validator.
const (
	TagEmail    = "account_email"
	TagPassword = "strong_password"
	TagPhone    = "phone10"
)

// MinPasswordLength — минимальная длина пароля в кодовых единицах UTF-16
// (символ вне BMP, например эмодзи, считается за два).
const MinPasswordLength = 8

var (
	// пробельными считаются и юникодные пробелы, \v и BOM, а не только [\t\n\f\r ]
	emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// IsValidEmail проверяет, что email непустой и имеет вид local@domain.tld.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailPattern.MatchString(email)
}

// IsStrongPassword проверяет, что пароль не короче MinPasswordLength
// и содержит хотя бы одну латинскую букву и одну цифру.
// Переводы строк в пароле не допускаются.
func IsStrongPassword(password string) bool {
	if password == "" || len(utf16.Encode([]rune(password))) < MinPasswordLength {
		return false
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029':
			return false
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// IsValidPhone проверяет телефон: пустое значение допустимо (поле необязательное),
// иначе требуется ровно 10 цифр.
func IsValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	return phonePattern.MatchString(phone)
}

// RegisterTags регистрирует предикаты пакета как теги валидатора.
func RegisterTags(v *validator.Validate) error {
	tags := map[string]func(string) bool{
		TagEmail:    IsValidEmail,
		TagPassword: IsStrongPassword,
		TagPhone:    IsValidPhone,
	}
	for tag, fn := range tags {
		fn := fn
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// New возвращает валидатор с уже зарегистрированными тегами пакета.
func New() *validator.Validate {
	v := validator.New()
	if err := RegisterTags(v); err != nil {
		// теги и функции статичны, ошибка означает дефект в коде
		panic(err)
	}
	return v
}
