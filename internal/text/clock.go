package text

import "strings"

var (
	ruHours   = forms{"час", "часа", "часов"}
	ruMinutes = forms{"минута", "минуты", "минут"}
	ukHours   = forms{"година", "години", "годин"}
	ukMinutes = forms{"хвилина", "хвилини", "хвилин"}
)

// SpellClock renders a time of day as "<H> hours <M> minutes" in lang. The
// minute phrase is omitted when minutes is zero.
//
// Russian and Ukrainian nouns are declined by Plural. Russian minutes are
// feminine, so a trailing "один"/"два" numeral becomes "одна"/"две".
// Other languages use English unit words with singular only for exactly 1.
func SpellClock(hours, minutes int, lang string) (string, error) {
	lang = BaseLanguage(lang)

	hoursWord, err := SpellInt(int64(hours), lang)
	if err != nil {
		return "", err
	}
	var minutesWord string
	if minutes != 0 {
		minutesWord, err = SpellInt(int64(minutes), lang)
		if err != nil {
			return "", err
		}
	}

	switch lang {
	case "ru":
		out := hoursWord + " " + ruHours.of(int64(hours))
		if minutes == 0 {
			return out, nil
		}
		minutesWord = feminineMinutes(minutesWord, minutes)
		return out + " " + minutesWord + " " + ruMinutes.of(int64(minutes)), nil
	case "uk":
		out := hoursWord + " " + ukHours.of(int64(hours))
		if minutes == 0 {
			return out, nil
		}
		return out + " " + minutesWord + " " + ukMinutes.of(int64(minutes)), nil
	default:
		out := hoursWord + " " + englishUnit(hours, "hour", "hours")
		if minutes == 0 {
			return out, nil
		}
		return out + " " + minutesWord + " " + englishUnit(minutes, "minute", "minutes"), nil
	}
}

func feminineMinutes(word string, minutes int) string {
	switch {
	case minutes%10 == 1 && minutes%100 != 11 && strings.HasSuffix(word, "один"):
		return strings.TrimSuffix(word, "один") + "одна"
	case minutes%10 == 2 && minutes%100 != 12 && strings.HasSuffix(word, "два"):
		return strings.TrimSuffix(word, "два") + "две"
	default:
		return word
	}
}

func englishUnit(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
