package usecase

import (
	"regexp"
	"strings"
)

var emailRE = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Marcas invisíveis que chegam junto com emails colados de teclados RTL
// (ZWNJ e RLM, principalmente). Precisam sair antes da validação.
// Escritas como escapes: um U+FEFF literal no meio do arquivo nem compila.
var invisibleMarks = strings.NewReplacer(
	"\u200C", "", // ZWNJ
	"\u200D", "", // ZWJ
	"\u200E", "", // LRM
	"\u200F", "", // RLM
	"\uFEFF", "", // BOM
)

// NormalizeEmail é idempotente: normalizar duas vezes dá o mesmo resultado.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(invisibleMarks.Replace(raw)))
}

func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRE.MatchString(email)
}

// CheckEmail normaliza e valida numa tacada só. Erro aqui é sempre
// DomainError: culpa do input, não do sistema.
func CheckEmail(raw string) (string, error) {
	email := NormalizeEmail(raw)
	if !IsValidEmail(email) {
		return "", &DomainError{Code: "INVALID_EMAIL", Message: "email fora do formato nome@exemplo.com"}
	}
	return email, nil
}
