package detect

import "regexp"

// =============================================================================
// SCORING TABLES
// All regex patterns are compiled once at package init and shared across
// scorer instances. Weights are fixed; seed files may override vocabularies
// but never the layer weights.
// =============================================================================

// Layer weights and thresholds.
const (
	weightURL         = 2.5
	weightUPI         = 3.0
	weightBankAccount = 3.0
	weightOTP         = 4.0

	weightLinguistic    = 0.5
	maxLinguisticScore  = 2.0
	weightContextRule   = 3.0
	weightSemantic      = 3.0
	semanticThreshold   = 0.6
	weightHistoryHit    = 1.0
	maxHistoryScore     = 3.0
	persistenceBonus    = 0.5
	persistenceMinTurns = 3

	// ScamThreshold is the per-message classification cutoff on the 0-10 scale.
	ScamThreshold = 6.0

	// MaxScore caps the total risk score.
	MaxScore = 10.0
)

// Structural patterns.
var (
	reURL       = regexp.MustCompile(`(https?://\S+|www\.\S+)`)
	reUPI       = regexp.MustCompile(`[\w.\-]+@\w+`)
	reBankDigit = regexp.MustCompile(`\b\d{9,18}\b`)
	rePhone     = regexp.MustCompile(`(\+91[\-\s]?)?[6-9]\d{9}`)
	reOTPDigits = regexp.MustCompile(`\b\d{4,6}\b`)
	reOTPWord   = regexp.MustCompile(`\b(otp|code|pin|password)\b`)
)

// safetyPatterns strictly indicate protective advice, not a scam. They take
// precedence over every other layer: "never share your OTP" would otherwise
// trigger the OTP request rules below.
var safetyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`never share.*otp`),
	regexp.MustCompile(`do not share.*otp`),
	regexp.MustCompile(`don'?t share.*otp`),
	regexp.MustCompile(`never give.*otp`),
	regexp.MustCompile(`never tell.*otp`),
	regexp.MustCompile(`do not click.*link`),
	regexp.MustCompile(`don'?t click.*link`),
	regexp.MustCompile(`never click.*link`),
	regexp.MustCompile(`do not click.*unknown`),
	regexp.MustCompile(`bank.*never asks`),
	regexp.MustCompile(`officials.*never ask`),
	regexp.MustCompile(`beware of.*scam`),
	regexp.MustCompile(`be careful.*fraud`),
	regexp.MustCompile(`stay safe`),
	regexp.MustCompile(`avoid.*scam`),
	regexp.MustCompile(`not a scam`),
}

// defaultUrgencyTerms are the weak linguistic pressure signals. Each hit adds
// weightLinguistic, capped at maxLinguisticScore.
var defaultUrgencyTerms = []string{
	"urgent", "immediately", "now", "verify", "blocked",
	"suspended", "prize", "reward", "offer", "limited",
	"expire", "lapse", "kyc",
}

// contextRule is a (verb, object) co-occurrence that is individually benign
// but jointly indicative of a scam request.
type contextRule struct {
	verb   string
	object string
}

var contextRules = []contextRule{
	{"verify", "link"},
	{"send", "money"},
	{"send", "payment"},
	{"share", "otp"},
	{"give", "otp"},
	{"tell", "otp"},
	{"update", "bank"},
	{"click", "link"},
	{"confirm", "account"},
	{"verify", "kyc"},
	{"block", "account"},
	{"share", "upi"},
	{"give", "upi"},
	{"send", "upi"},
	{"verify", "upi"},
	{"share", "id"},
	{"verification", "upi"},
	{"verification", "account"},
	{"verification", "otp"},
	{"transfer", "account"},
	{"transfer", "money"},
	{"pay", "now"},
	{"send", "amount"},
}

// defaultTemplates is the fixed corpus of canonical scam sentences the
// semantic layer is fit against. Frozen at construction; no online fitting.
var defaultTemplates = []string{
	"your account will be blocked",
	"your bank account is suspended",
	"send otp to verify",
	"share otp for verification",
	"claim your prize reward now",
	"you have won a lottery",
	"update kyc immediately",
	"click this link to verify",
	"payment failed pay now",
	"electricity bill unpaid warning",
	"income tax refund pending",
}

// historySuspectTerms flag a prior turn as suspicious for the history layer.
var historySuspectTerms = []string{"details", "bank", "otp", "link", "money"}
