package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// SMTPMerchantNotifier emails the store owner when a payment settles.
type SMTPMerchantNotifier struct {
	config SMTPConfig
	stores store.InfoProvider
	dialer *gomail.Dialer
}

func NewSMTPMerchantNotifier(config SMTPConfig, stores store.InfoProvider) *SMTPMerchantNotifier {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPMerchantNotifier{
		config: config,
		stores: stores,
		dialer: dialer,
	}
}

func (s *SMTPMerchantNotifier) NotifyPaymentReceived(ctx context.Context, storeID uint, orderNo string, amount sharedVO.Money, transactionID string) error {
	name, address, err := s.stores.MerchantContact(ctx, storeID)
	if err != nil {
		return fmt.Errorf("failed to look up merchant contact: %w", err)
	}
	if address == "" {
		return nil
	}

	subject := fmt.Sprintf("Payment received for order %s", orderNo)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Payment Received</h2>
			<p>Hi %s,</p>
			<p>Order <strong>%s</strong> has been paid.</p>
			<p>Amount: %s %s<br>Transaction ID: %s</p>
			<p>You can now process the order from your dashboard.</p>
		</body>
		</html>
	`, name, orderNo, amount.TakaString(), amount.Currency(), transactionID)

	plainBody := fmt.Sprintf(`
Payment Received

Hi %s,

Order %s has been paid.

Amount: %s %s
Transaction ID: %s

You can now process the order from your dashboard.
	`, name, orderNo, amount.TakaString(), amount.Currency(), transactionID)

	return s.sendEmail(address, subject, htmlBody, plainBody)
}

func (s *SMTPMerchantNotifier) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
