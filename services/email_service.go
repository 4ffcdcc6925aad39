package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/pedrohrm/domino-league/config"
	"github.com/pedrohrm/domino-league/models"
)

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}

var championEmailTemplate = template.Must(template.New("champions").Parse(`
<h2>Campeonato "{{.CompetitionName}}" encerrado!</h2>
{{if .BestPlayer}}<p>Melhor jogador: <b>{{.BestPlayer}}</b> com {{.BestPlayerWins}} vitórias.</p>{{end}}
{{if .BestTeam}}<p>Melhor dupla: <b>{{.BestTeam}}</b> com {{.BestTeamWins}} vitórias.</p>{{end}}
<p>Confira a classificação completa no painel da liga.</p>
`))

func (s *EmailService) SendChampionNotification(userEmail string, competition *models.Competition, summary *models.ChampionSummary) error {
	if s.cfg.SMTPHost == "" {
		// Почта не настроена — уведомление просто пропускается.
		return nil
	}

	data := struct {
		CompetitionName string
		BestPlayer      string
		BestPlayerWins  int
		BestTeam        string
		BestTeamWins    int
	}{
		CompetitionName: competition.Name,
		BestPlayerWins:  summary.BestPlayerWins,
		BestTeamWins:    summary.BestTeamWins,
	}
	if summary.BestPlayer != nil {
		data.BestPlayer = summary.BestPlayer.Name
	}
	if len(summary.BestTeam) == 2 {
		data.BestTeam = summary.BestTeam[0].Name + " e " + summary.BestTeam[1].Name
	}

	var body bytes.Buffer
	if err := championEmailTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("ошибка выполнения шаблона письма: %w", err)
	}

	subject := fmt.Sprintf("Campeonato %s encerrado", competition.Name)
	return s.SendEmail([]string{userEmail}, subject, body.String())
}
