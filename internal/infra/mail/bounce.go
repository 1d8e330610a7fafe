package mail

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Assinaturas de não-entrega que os mailer-daemons costumam devolver.
// É um substring match ingênuo de propósito: um probe-e-bounce nunca vai
// ser exato, e o contrato aceita falso "Verified" em bounces lentos.
var bounceSignatures = []string{
	"address not found",
	"no such user",
	"user unknown",
	"does not exist",
	"550 5.1.1",
}

const mailerDaemonFrom = "mailer-daemon"

// BounceChecker varre a caixa de entrada da própria conta de envio
// atrás de bounces para um endereço alvo.
type BounceChecker struct {
	Addr     string // host:porta IMAP (TLS), ex: imap.gmail.com:993
	User     string
	Password string
}

func NewBounceChecker(addr, user, password string) *BounceChecker {
	return &BounceChecker{Addr: addr, User: user, Password: password}
}

// HasBounce inspeciona só as últimas `window` mensagens do mailer-daemon:
// uma checagem limitada, não um loop de retry.
func (b *BounceChecker) HasBounce(ctx context.Context, email string, window int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c, err := client.DialTLS(b.Addr, nil)
	if err != nil {
		return false, fmt.Errorf("falha ao conectar no IMAP: %w", err)
	}
	defer c.Logout()

	if err := c.Login(b.User, b.Password); err != nil {
		return false, fmt.Errorf("falha no login IMAP: %w", err)
	}

	if _, err := c.Select("INBOX", true); err != nil {
		return false, fmt.Errorf("falha ao abrir INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("From", mailerDaemonFrom)
	ids, err := c.Search(criteria)
	if err != nil {
		return false, fmt.Errorf("falha na busca IMAP: %w", err)
	}
	if len(ids) == 0 {
		return false, nil
	}

	if window > 0 && len(ids) > window {
		ids = ids[len(ids)-window:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	target := strings.ToLower(email)
	found := false
	for msg := range messages {
		r := msg.GetBody(section)
		if r == nil {
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			log.Printf("⚠️ Falha ao ler corpo de bounce: %v", err)
			continue
		}
		if matchesBounce(strings.ToLower(string(raw)), target) {
			found = true
		}
	}

	if err := <-done; err != nil {
		return found, fmt.Errorf("falha no fetch IMAP: %w", err)
	}

	return found, nil
}

func matchesBounce(body, target string) bool {
	if !strings.Contains(body, target) {
		return false
	}
	for _, sig := range bounceSignatures {
		if strings.Contains(body, sig) {
			return true
		}
	}
	return false
}
