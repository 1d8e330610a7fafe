package entity

// SessionState são os estados da conversa de cadastro.
// Verifying cobre a janela em que a verificação de entregabilidade
// roda em background e a sessão só aceita /cancel ou /start.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingName
	StateAwaitingEmail
	StateVerifying
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingName:
		return "AwaitingName"
	case StateAwaitingEmail:
		return "AwaitingEmail"
	case StateVerifying:
		return "Verifying"
	default:
		return "Idle"
	}
}
