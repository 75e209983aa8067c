package payments

const maskPrefix = "**** **** **** "

// MaskCardNumber hides everything but the last four digits of a card number.
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return maskPrefix + number[len(number)-4:]
}
