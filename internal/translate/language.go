package translate

// DetectLanguage classifies text as "arabic", "english", "mixed" or
// "unknown" by the ratio of Arabic letters to Latin letters. Digits,
// punctuation and whitespace are ignored.
func DetectLanguage(text string) string {
	var arabic, latin int
	for _, r := range text {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			arabic++
		case r < 128 && isASCIILetter(byte(r)):
			latin++
		}
	}

	total := arabic + latin
	if total == 0 {
		return "unknown"
	}

	ratio := float64(arabic) / float64(total)
	switch {
	case ratio > 0.7:
		return "arabic"
	case ratio < 0.3:
		return "english"
	default:
		return "mixed"
	}
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
