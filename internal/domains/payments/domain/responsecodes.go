package domain

// ApprovedCode is the only gateway response code treated as success.
const ApprovedCode = "0000"

var responseCodeDescriptions = map[string]string{
	"0000": "Transaction approved",
	"0101": "Card blocked",
	"0102": "Card expired",
	"0106": "Insufficient funds",
	"0125": "Invalid card number",
	"0129": "Invalid expiration date",
	"0167": "Invalid CVC",
	"0184": "Transaction not allowed for this card",
	"0190": "Operation denied",
	"0904": "Merchant not registered",
	"0912": "Issuer not available",
	"0913": "Duplicate transmission",
	"9915": "Payment cancelled by user",
}

// ResponseCodeDescription maps a gateway response code to a human-readable
// explanation, falling back to a generic message for unlisted codes.
func ResponseCodeDescription(code string) string {
	if desc, ok := responseCodeDescriptions[code]; ok {
		return desc
	}
	return "Unknown response code: " + code
}

// Approved reports whether the gateway response code denotes an approved
// transaction.
func Approved(code string) bool {
	return code == ApprovedCode
}
