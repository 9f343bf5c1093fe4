// Package forms описывает формы регистрации, входа и редактирования профиля
// и их проверку. Ошибки проверки возвращаются как карта «поле → сообщение»,
// а не как error: их показывают рядом с полями формы.
package forms

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-manager/internal/lib/validation"
	"github.com/magabrotheeeer/account-manager/internal/models"
)

// Сообщения об ошибках полей.
const (
	MsgNameRequired     = "Name is required"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Please enter a valid email"
	MsgPasswordRequired = "Password is required"
	MsgPasswordWeak     = "Password must be at least 8 characters and include a number"
	MsgConfirmRequired  = "Please confirm your password"
	MsgPasswordMismatch = "Passwords do not match"
	MsgPhoneInvalid     = "Phone number must be 10 digits"
)

// Errors — ошибки валидации по имени поля формы.
type Errors map[string]string

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validation.New()
	// в ошибках используем имена полей из json-тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// messages сопоставляет пару (поле, тег) с сообщением.
var messages = map[string]map[string]string{
	"name": {
		"required": MsgNameRequired,
	},
	"email": {
		"required":          MsgEmailRequired,
		validation.TagEmail: MsgEmailInvalid,
	},
	"password": {
		"required":             MsgPasswordRequired,
		validation.TagPassword: MsgPasswordWeak,
	},
	"confirmPassword": {
		"required": MsgConfirmRequired,
	},
	"phone": {
		validation.TagPhone: MsgPhoneInvalid,
	},
}

func check(form any) Errors {
	errs := Errors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs
	}
	for _, fe := range verrs {
		field := fe.Field()
		if msg, ok := messages[field][fe.Tag()]; ok {
			errs[field] = msg
		}
	}
	return errs
}

// Register — форма регистрации.
type Register struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,account_email"`
	Password        string `json:"password" validate:"required,strong_password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Phone           string `json:"phone" validate:"phone10"`
	Address         string `json:"address"`
}

// Normalize обрезает пробелы во всех полях, кроме паролей.
func (f *Register) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
}

// Validate проверяет форму. Пустая карта означает, что ошибок нет.
func (f Register) Validate() Errors {
	errs := check(f)
	if _, failed := errs["confirmPassword"]; !failed && f.Password != f.ConfirmPassword {
		errs["confirmPassword"] = MsgPasswordMismatch
	}
	return errs
}

// Registration переводит форму в запрос регистрации.
func (f Register) Registration() models.Registration {
	return models.Registration{
		Name:     f.Name,
		Email:    f.Email,
		Password: f.Password,
		Phone:    f.Phone,
		Address:  f.Address,
	}
}

// Login — форма входа.
type Login struct {
	Email    string `json:"email" validate:"required,account_email"`
	Password string `json:"password" validate:"required"`
}

// Normalize обрезает пробелы в email.
func (f *Login) Normalize() {
	f.Email = strings.TrimSpace(f.Email)
}

// Validate проверяет форму.
func (f Login) Validate() Errors {
	return check(f)
}

// Profile — форма редактирования профиля. Email не редактируется,
// пустой пароль означает «оставить текущий».
type Profile struct {
	Name            string `json:"name" validate:"required"`
	Phone           string `json:"phone" validate:"phone10"`
	Address         string `json:"address"`
	Password        string `json:"password" validate:"omitempty,strong_password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Normalize обрезает пробелы во всех полях, кроме паролей.
func (f *Profile) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
}

// Validate проверяет форму. Подтверждение сверяется, только если пароль задан.
func (f Profile) Validate() Errors {
	errs := check(f)
	if f.Password != "" && f.Password != f.ConfirmPassword {
		errs["confirmPassword"] = MsgPasswordMismatch
	}
	return errs
}

// Update переводит форму в запрос обновления профиля пользователя id.
func (f Profile) Update(id int64) models.ProfileUpdate {
	req := models.ProfileUpdate{
		ID:      id,
		Name:    f.Name,
		Phone:   f.Phone,
		Address: f.Address,
	}
	if f.Password != "" {
		password := f.Password
		req.Password = &password
	}
	return req
}
