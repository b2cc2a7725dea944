package throttle

import (
	"fmt"
	"strings"

	"verification-gateway/middleware/throttle/domain"
)

// Message traduz uma Decision em texto para o usuário final.
// lang "en" devolve inglês; qualquer outro valor, sueco.
func Message(dec domain.Decision, lang string) string {
	en := strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "en")
	secs := retryAfterSeconds(dec.Wait)

	switch dec.Reason {
	case domain.ReasonCooldown:
		if en {
			return fmt.Sprintf("Please wait %d seconds before requesting a new code.", secs)
		}
		return fmt.Sprintf("Vänta %d sekunder innan du begär en ny kod.", secs)
	case domain.ReasonDailyLimitExceeded:
		if en {
			return fmt.Sprintf("You have reached the limit of %d codes per day. Try again tomorrow.", dec.Limit)
		}
		return fmt.Sprintf("Du har nått gränsen på %d koder per dygn. Försök igen i morgon.", dec.Limit)
	}

	if en {
		return "A verification code has been sent."
	}
	return "En verifieringskod har skickats."
}
