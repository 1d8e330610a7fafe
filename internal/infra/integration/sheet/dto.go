package sheet

// LeadPayload é o formato que o Web App do Apps Script espera.
type LeadPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
	Status   string `json:"status"`
	Note     string `json:"note,omitempty"`
}

// Result padroniza o retorno best-effort do sink: Ok ou Err(reason),
// consumido só para log.
type Result struct {
	OK     bool
	Reason string
}

func Ok() Result {
	return Result{OK: true}
}

func Err(reason string) Result {
	return Result{OK: false, Reason: reason}
}
