package locale

import "golang.org/x/text/language"

// messages holds the built in translations keyed by message key
var messages = map[language.Tag]map[string]string{
	language.English: {
		"USERNAME_NULL":        "Username cannot be null",
		"USERNAME_SIZE":        "Must have min 4 and max 32 characters",
		"EMAIL_NULL":           "E-mail cannot be null",
		"EMAIL_INVALID":        "E-mail is not valid",
		"EMAIL_INUSE":          "E-mail in use",
		"PASSWORD_NULL":        "Password cannot be null",
		"PASSWORD_SIZE":        "Password must be at least 6 characters",
		"PASSWORD_PATTERN":     "Password must have at least 1 uppercase, 1 lowercase letter and 1 number",
		"USER_CREATED":         "User created",
		"EMAIL_FAILURE":        "E-mail Failure",
		"ACCOUNT_ACTIVATED":    "Account is activated",
		"INVALID_TOKEN":        "This account is either active or the token is invalid",
		"VALIDATION_FAILURE":   "Validation Failure",
		"UNEXPECTED_ERROR":     "Unexpected error",
		"INVALID_REQUEST_BODY": "Invalid request body",
	},
	language.Turkish: {
		"USERNAME_NULL":        "Kullanıcı adı boş olamaz",
		"USERNAME_SIZE":        "En az 4 en fazla 32 karakter olmalı",
		"EMAIL_NULL":           "E-posta boş olamaz",
		"EMAIL_INVALID":        "E-posta geçerli değil",
		"EMAIL_INUSE":          "Bu e-posta kullanılıyor",
		"PASSWORD_NULL":        "Şifre boş olamaz",
		"PASSWORD_SIZE":        "Şifre en az 6 karakter olmalı",
		"PASSWORD_PATTERN":     "Şifrede en az 1 büyük harf, 1 küçük harf ve 1 rakam olmalı",
		"USER_CREATED":         "Kullanıcı oluşturuldu",
		"EMAIL_FAILURE":        "E-posta gönderilemedi",
		"ACCOUNT_ACTIVATED":    "Hesap aktifleştirildi",
		"INVALID_TOKEN":        "Bu hesap zaten aktif ya da kod geçersiz",
		"VALIDATION_FAILURE":   "Doğrulama hatası",
		"UNEXPECTED_ERROR":     "Beklenmeyen hata",
		"INVALID_REQUEST_BODY": "Geçersiz istek gövdesi",
	},
}
