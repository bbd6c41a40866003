package detect

import "strings"

// scamTypeRule maps trigger terms to a human-readable scam family. Checked
// in order; first hit wins.
type scamTypeRule struct {
	label string
	terms []string
}

var scamTypeRules = []scamTypeRule{
	{"Prize/Lottery Scam", []string{"won", "winner", "prize", "lottery", "lucky"}},
	{"KYC/Bank Update Scam", []string{"kyc", "pan", "aadhar", "update", "expire"}},
	{"OTP/Phishing Scam", []string{"otp", "code", "pin", "password"}},
	{"Job/Employment Scam", []string{"job", "hiring", "work from home", "salary"}},
	{"Loan Scam", []string{"loan", "interest", "approve"}},
	{"Electricity/Bill Scam", []string{"electricity", "bill", "power", "cut"}},
	{"Courier/Customs Scam", []string{"customs", "parcel", "delivery", "courier"}},
	{"Intimidation/Legal Scam", []string{"urgent", "police", "arrest", "legal"}},
}

// ScamType labels the likely scam family for reporting. Purely descriptive;
// never feeds back into scoring.
func ScamType(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range scamTypeRules {
		for _, term := range rule.terms {
			if strings.Contains(lower, term) {
				return rule.label
			}
		}
	}
	return "Generic Scam"
}
