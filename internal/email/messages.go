package email

import (
	"fmt"
	"html"
	"strings"
)

// Message - готовое письмо для очереди уведомлений
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Простые тела писем. Оформление шаблонов - задача внешнего сервиса рассылок.

func paragraph(lines ...string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}

// ContributionDecision - письмо донору о решении по взносу
func ContributionDecision(to, donorName, title, status string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your contribution to %q is now %s", title, status),
		HTMLBody: paragraph(
			fmt.Sprintf("Hello %s,", donorName),
			fmt.Sprintf("The organization updated your contribution to %q. Current status: %s.", title, status),
		),
	}
}

// PaymentDecision - письмо донору о результате проверки платежа
func PaymentDecision(to, donorName, transactionRef, status string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Payment %s: %s", transactionRef, status),
		HTMLBody: paragraph(
			fmt.Sprintf("Hello %s,", donorName),
			fmt.Sprintf("Your payment with reference %s was marked as %s.", transactionRef, status),
		),
	}
}

// OrganizationVerification - письмо организации о решении модерации
func OrganizationVerification(to, orgName, status, reason string) Message {
	lines := []string{
		fmt.Sprintf("Hello %s,", orgName),
		fmt.Sprintf("Your organization verification status is now %s.", status),
	}
	if reason != "" {
		lines = append(lines, "Reason: "+reason)
	}
	return Message{
		To:       to,
		Subject:  "Organization verification: " + status,
		HTMLBody: paragraph(lines...),
	}
}

// AccountBlocked - письмо о блокировке или разблокировке
func AccountBlocked(to, name string, blocked bool, reason string) Message {
	state := "unblocked"
	if blocked {
		state = "blocked"
	}
	return Message{
		To:       to,
		Subject:  "Your account was " + state,
		HTMLBody: paragraph(fmt.Sprintf("Hello %s,", name), "Your account was "+state+".", "Reason: "+reason),
	}
}
