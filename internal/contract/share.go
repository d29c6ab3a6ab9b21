package contract

import (
	"fmt"
	"strings"

	"github.com/dukerupert/north/internal/model"
)

// ParseContacts turns a comma separated list into contacts. Values with an @
// are email contacts named by their local part; everything else is sms.
func ParseContacts(input string) []model.AccountabilityContact {
	var contacts []model.AccountabilityContact
	for _, raw := range strings.Split(input, ",") {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		ct := model.AccountabilityContact{Name: value, Channel: model.ChannelSMS, Value: value}
		if at := strings.IndexByte(value, '@'); at >= 0 {
			ct.Channel = model.ChannelEmail
			ct.Name = value[:at]
		}
		contacts = append(contacts, ct)
	}
	return contacts
}

// AccountabilityMessage is the text sent when a promise was missed.
func AccountabilityMessage(c model.Contract) string {
	targets := "accountability contacts"
	if len(c.AccountabilityContacts) > 0 {
		values := make([]string, len(c.AccountabilityContacts))
		for i, ct := range c.AccountabilityContacts {
			values[i] = ct.Value
		}
		targets = strings.Join(values, ", ")
	}
	return fmt.Sprintf("I missed my North contract:\n\n\"%s\"\n\nPlease hold me accountable. Send to: %s", c.Promise, targets)
}

// WinMessage is the share-card text for a kept promise.
func WinMessage(c model.Contract) string {
	return fmt.Sprintf("✅ Promise kept in North\n\n\"%s\"\n\nHeld myself accountable and shipped it.", c.Promise)
}
