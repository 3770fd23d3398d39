package helper

import (
	"fmt"
	"regexp"
	"strings"
)

// WhatsApp chat address suffix for direct (non-group) recipients.
const UserSuffix = "@c.us"

const countryCode = "212"

var nonDigit = regexp.MustCompile(`[^\d]`)

// NormalizeRecipient converts a raw phone string to the canonical WhatsApp
// chat address: digits only, local 0-prefix swapped for the country code,
// suffixed with @c.us. Inputs that already carry a suffix keep it after the
// local part is cleaned, so "0612345678" and "+212612345678@c.us" both
// normalize to "212612345678@c.us".
func NormalizeRecipient(raw string) (string, error) {
	local := raw
	suffix := UserSuffix
	if at := strings.Index(raw, "@"); at != -1 {
		local = raw[:at]
		suffix = raw[at:]
	}

	cleaned := nonDigit.ReplaceAllString(local, "")
	if len(cleaned) < 9 {
		return "", fmt.Errorf("phone number too short: %q", raw)
	}

	// Local format 06xxxxxxxx → 2126xxxxxxxx
	if strings.HasPrefix(cleaned, "0") {
		cleaned = countryCode + cleaned[1:]
	}

	return cleaned + suffix, nil
}

// DigitsOnly extracts the bare phone number from a chat JID or phone string.
// The device suffix and server are cut first, so
// "212612345678:12@s.whatsapp.net" -> "212612345678".
func DigitsOnly(jid string) string {
	beforeAt := jid
	if at := strings.Index(jid, "@"); at != -1 {
		beforeAt = jid[:at]
	}
	if colon := strings.Index(beforeAt, ":"); colon != -1 {
		beforeAt = beforeAt[:colon]
	}
	return nonDigit.ReplaceAllString(beforeAt, "")
}
