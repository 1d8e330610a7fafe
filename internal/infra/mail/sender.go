package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

func NewEmailSender(host string, port int, user, password string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     user,
	}
}

// SendVerification é o probe de entregabilidade: a única função dele é
// provocar um bounce se o endereço não existir.
func (s *EmailSender) SendVerification(name, email string) error {
	body := fmt.Sprintf(
		"Olá %s,\n\n"+
			"Este é um email de verificação da Ligue.\n"+
			"Se você recebeu esta mensagem, seu endereço de email está funcionando.\n\n"+
			"Obrigado,\nEquipe Ligue",
		name,
	)

	return s.send(email, "Ligue — Verificação de Email", body)
}

// SendFollowUp envia o material de boas-vindas depois da confirmação.
func (s *EmailSender) SendFollowUp(name, email, welcomeLink string) error {
	link := welcomeLink
	if link == "" {
		link = "https://liguemedicina.com/comece-aqui"
	}
	body := fmt.Sprintf(
		"Olá %s,\n\n"+
			"Seu email foi verificado com sucesso 🎉\n"+
			"Comece por aqui: %s\n\n"+
			"— Equipe Ligue",
		name, link,
	)

	return s.send(email, "Bem-vindo à Ligue — Comece Aqui!", body)
}

func (s *EmailSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.From, "Ligue"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return nil
}
