// Package intel extracts structured scam indicators (bank accounts, UPI ids,
// phone numbers, phishing links, emails, keywords) from message text.
//
// Design principles:
// - COMPILE ONCE: all regex patterns are compiled at package init
// - STATELESS: extraction is pure; accumulation lives in the session layer
// - NORMALIZED: phone numbers collapse to a single canonical +91 form so that
//   session-level deduplication works across formats
package intel

import (
	"regexp"
	"strings"
)

// Category identifies one class of extracted indicator.
type Category string

const (
	CategoryBankAccount Category = "bank_accounts"
	CategoryUPI         Category = "upi_ids"
	CategoryPhone       Category = "phone_numbers"
	CategoryLink        Category = "phishing_links"
	CategoryEmail       Category = "email_addresses"
	CategoryKeyword     Category = "suspicious_keywords"
)

// Pre-compiled extraction patterns (compiled once, used many times).
var (
	reDigitRun = regexp.MustCompile(`\b\d{9,18}\b`)
	reUPI      = regexp.MustCompile(`[a-zA-Z0-9._\-]+@[a-zA-Z0-9]+`)
	reEmail    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Phone formats: +91 prefixed, bare 91-prefixed 12-digit, Indian mobile
	// (10 digits starting 6-9), generic international.
	rePhonePlus91 = regexp.MustCompile(`\+91[\s\-]?\d{10}`)
	rePhone91    = regexp.MustCompile(`\b91\d{10}\b`)
	rePhoneIN    = regexp.MustCompile(`\b[6-9]\d{9}\b`)
	rePhoneIntl  = regexp.MustCompile(`\+\d{1,3}[\s\-]?\d{10,12}`)

	reURLProto  = regexp.MustCompile(`https?://[^\s<>"']+`)
	reURLWWW    = regexp.MustCompile(`\bwww\.[^\s<>"']+`)
	reShortener = regexp.MustCompile(`\b(?:bit\.ly|tinyurl\.com|short\.io)/[a-zA-Z0-9]+`)
	reBadTLD    = regexp.MustCompile(`\b[a-zA-Z0-9\-]+\.(?:xyz|tk|ml|ga|cf|top|click|link|online|site|website)[^\s]*`)

	reSeparators = regexp.MustCompile(`[\s\-]`)
)

// whitelistDomains are major banks/platforms whose links are never treated
// as phishing. Checked after candidate extraction, before insertion.
var whitelistDomains = []string{
	"google.com", "microsoft.com", "apple.com",
	"facebook.com", "twitter.com", "linkedin.com",
	"amazon.in", "flipkart.com", "paytm.com",
	"sbi.co.in", "hdfcbank.com", "icicibank.com",
}

// suspiciousKeywords is the fixed vocabulary tracked per message. Presence,
// not count, is recorded.
var suspiciousKeywords = []string{
	// Urgency
	"urgent", "immediately", "today", "now", "asap", "hurry",
	"deadline", "expire", "last chance", "final warning",
	// Threats
	"blocked", "suspended", "frozen", "deactivated", "terminated",
	"legal action", "police", "arrest", "court", "lawsuit",
	// Financial
	"otp", "pin", "cvv", "password", "verify", "kyc",
	"transfer", "refund", "cashback",
	// Prize scams
	"won", "winner", "lottery", "prize", "reward", "congratulations",
	// Impersonation
	"rbi", "income tax", "government", "bank manager", "customer care",
}

// Set is a deduplicated collection of extracted indicators per category.
// Values are canonical (normalized) strings.
type Set map[Category]map[string]struct{}

// NewSet returns an empty intelligence set with all categories initialized.
func NewSet() Set {
	return Set{
		CategoryBankAccount: {},
		CategoryUPI:         {},
		CategoryPhone:       {},
		CategoryLink:        {},
		CategoryEmail:       {},
		CategoryKeyword:     {},
	}
}

// Add inserts a value into a category, creating the category if needed.
func (s Set) Add(c Category, value string) {
	if value == "" {
		return
	}
	if s[c] == nil {
		s[c] = make(map[string]struct{})
	}
	s[c][value] = struct{}{}
}

// Values returns the sorted-insensitive slice of values for a category.
// Order is unspecified; callers requiring stable output should sort.
func (s Set) Values(c Category) []string {
	vals := make([]string, 0, len(s[c]))
	for v := range s[c] {
		vals = append(vals, v)
	}
	return vals
}

// Size returns the total number of indicators across all categories.
func (s Set) Size() int {
	n := 0
	for _, m := range s {
		n += len(m)
	}
	return n
}

// Merge returns the per-category set union of a and b. Neither input is
// modified.
func Merge(a, b Set) Set {
	out := NewSet()
	for _, src := range []Set{a, b} {
		for c, vals := range src {
			for v := range vals {
				out.Add(c, v)
			}
		}
	}
	return out
}

// Extract pulls all structured indicators out of one message's text.
// Malformed or empty text yields an empty set; extraction never fails.
func Extract(text string) Set {
	out := NewSet()
	if strings.TrimSpace(text) == "" {
		return out
	}

	extractPhones(text, out)
	extractBankAccounts(text, out)
	extractUPI(text, out)
	extractLinks(text, out)

	for _, email := range reEmail.FindAllString(text, -1) {
		out.Add(CategoryEmail, email)
	}

	lower := strings.ToLower(text)
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			out.Add(CategoryKeyword, kw)
		}
	}

	return out
}

// extractBankAccounts records digit runs of length 9-18. A candidate that is
// exactly 10 digits starting with 6-9 is a mobile number, not an account.
func extractBankAccounts(text string, out Set) {
	for _, m := range reDigitRun.FindAllString(text, -1) {
		if looksLikeMobile(m) {
			continue
		}
		out.Add(CategoryBankAccount, m)
	}
}

func looksLikeMobile(digits string) bool {
	return len(digits) == 10 && digits[0] >= '6' && digits[0] <= '9'
}

func extractUPI(text string, out Set) {
	for _, m := range reUPI.FindAllString(text, -1) {
		if m == "@" {
			continue
		}
		out.Add(CategoryUPI, m)
	}
}

func extractPhones(text string, out Set) {
	seen := func(matches []string) {
		for _, m := range matches {
			out.Add(CategoryPhone, NormalizePhone(m))
		}
	}
	seen(rePhonePlus91.FindAllString(text, -1))
	seen(rePhone91.FindAllString(text, -1))
	seen(rePhoneIN.FindAllString(text, -1))
	seen(rePhoneIntl.FindAllString(text, -1))
}

// NormalizePhone strips separators and canonicalizes Indian numbers:
// a bare 10-digit mobile gains a +91 prefix, a 91-prefixed 12-digit run
// gains a leading +. Both forms collapse to the identical string.
func NormalizePhone(phone string) string {
	cleaned := reSeparators.ReplaceAllString(phone, "")
	switch {
	case len(cleaned) == 10 && cleaned[0] >= '6' && cleaned[0] <= '9':
		return "+91" + cleaned
	case len(cleaned) == 12 && strings.HasPrefix(cleaned, "91"):
		return "+" + cleaned
	}
	return cleaned
}

func extractLinks(text string, out Set) {
	candidates := reURLProto.FindAllString(text, -1)
	candidates = append(candidates, reURLWWW.FindAllString(text, -1)...)
	candidates = append(candidates, reShortener.FindAllString(text, -1)...)
	candidates = append(candidates, reBadTLD.FindAllString(text, -1)...)

	for _, link := range candidates {
		if isWhitelisted(link) {
			continue
		}
		out.Add(CategoryLink, link)
	}
}

func isWhitelisted(link string) bool {
	lower := strings.ToLower(link)
	for _, domain := range whitelistDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}
