package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"talent-pipeline/internal/model"
)

// EmailConfig 邮件配置。
type EmailConfig struct {
	Host     string   `yaml:"host" json:"host"`
	Port     int      `yaml:"port" json:"port"`
	Username string   `yaml:"username" json:"username"`
	Password string   `yaml:"password" json:"password"`
	From     string   `yaml:"from" json:"from"`
	To       []string `yaml:"to" json:"to"`
	Subject  string   `yaml:"subject" json:"subject"`
}

// EmailMessage 表示一封邮件。
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// EmailSender 抽象发送接口，便于测试替换。
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPClient 封装 SMTP 发送。
type SMTPClient struct {
	addr string
	auth smtp.Auth
}

func NewSMTPClient(cfg EmailConfig) *SMTPClient {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPClient{addr: addr, auth: auth}
}

func (c *SMTPClient) Send(ctx context.Context, msg EmailMessage) error {
	data := buildEmailData(msg)
	return smtp.SendMail(c.addr, c.auth, msg.From, msg.To, []byte(data))
}

// OfferNotifier 在候选人进入 offer 状态后向候选人与招聘组发送邮件。
type OfferNotifier struct {
	cfg    EmailConfig
	sender EmailSender
}

// NewOfferNotifier 创建 OfferNotifier。
func NewOfferNotifier(cfg EmailConfig, sender EmailSender) *OfferNotifier {
	if sender == nil {
		sender = NewSMTPClient(cfg)
	}
	if cfg.Subject == "" {
		cfg.Subject = "Offer update"
	}
	return &OfferNotifier{cfg: cfg, sender: sender}
}

// NotifyOffer 发送 offer 通知邮件，收件人为候选人与配置的抄送列表。
func (n OfferNotifier) NotifyOffer(ctx context.Context, cand model.Candidate) error {
	to := make([]string, 0, len(n.cfg.To)+1)
	if cand.User.Email != "" {
		to = append(to, cand.User.Email)
	}
	to = append(to, n.cfg.To...)
	if len(to) == 0 {
		return nil
	}

	msg := EmailMessage{
		From:    n.cfg.From,
		To:      to,
		Subject: fmt.Sprintf("%s: %s (%s)", n.cfg.Subject, cand.WorkOrder.Title, cand.WorkOrder.JobCode),
		Body:    buildOfferBody(cand),
	}
	return n.sender.Send(ctx, msg)
}

// buildOfferBody 生成纯文本邮件正文，评审意见可能来自富文本编辑器，
// 发送前剥离其中的标签。
func buildOfferBody(cand model.Candidate) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Dear %s,\n\n", cand.User.FullName))
	b.WriteString(fmt.Sprintf("We are pleased to extend an offer for the position of %s (%s).\n", cand.WorkOrder.Title, cand.WorkOrder.JobCode))

	comments := latestReviewComments(cand.StageProgress)
	if len(comments) > 0 {
		b.WriteString("\nRecruiter notes:\n")
		for _, c := range comments {
			b.WriteString(fmt.Sprintf("- %s\n", c))
		}
	}
	return b.String()
}

func latestReviewComments(progress []model.StageProgress) []string {
	var comments []string
	for _, stage := range progress {
		for _, review := range stage.RecruiterReviews {
			text := strings.TrimSpace(StripMarkup(review.ReviewComments))
			if text == "" {
				continue
			}
			comments = append(comments, fmt.Sprintf("%s (%s): %s", review.ReviewerName, stage.StageName, text))
		}
	}
	return comments
}

func buildEmailData(msg EmailMessage) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ",")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
