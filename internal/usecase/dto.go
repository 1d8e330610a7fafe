package usecase

// InboundUpdate é o evento que chega do transporte (webhook ou polling),
// já reduzido ao que a conversa precisa.
type InboundUpdate struct {
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// VerifyResult é o contrato do verificador de entregabilidade.
type VerifyResult int

const (
	// VerifyVerified: janela de bounce esgotada sem nada — consideramos entregue.
	VerifyVerified VerifyResult = iota
	// VerifyInvalid: bounce reconhecido para o endereço alvo.
	VerifyInvalid
	// VerifyIndeterminate: o próprio envio do probe falhou.
	VerifyIndeterminate
)

func (r VerifyResult) String() string {
	switch r {
	case VerifyInvalid:
		return "invalid"
	case VerifyIndeterminate:
		return "indeterminate"
	default:
		return "verified"
	}
}
