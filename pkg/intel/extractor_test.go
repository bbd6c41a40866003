package intel

import "testing"

func TestExtractEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		set := Extract(text)
		if set.Size() != 0 {
			t.Errorf("Extract(%q): expected empty set, got %d indicators", text, set.Size())
		}
	}
}

func TestPhoneNormalizationCollapses(t *testing.T) {
	// A bare Indian mobile and its +91 form must normalize to one entry.
	set := Extract("call 9876543210 or +91 9876543210 or 919876543210")
	phones := set.Values(CategoryPhone)
	if len(phones) != 1 {
		t.Fatalf("expected 1 canonical phone, got %v", phones)
	}
	if phones[0] != "+919876543210" {
		t.Errorf("expected +919876543210, got %s", phones[0])
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"9876543210", "+919876543210"},
		{"919876543210", "+919876543210"},
		{"+91 9876543210", "+919876543210"},
		{"+91-9876543210", "+919876543210"},
		{"+14155550100", "+14155550100"},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBankAccountVsPhoneDisambiguation(t *testing.T) {
	// 10 digits starting 6-9 is a mobile, never an account.
	set := Extract("transfer to account 123456789012 or call 9876543210")

	accounts := set.Values(CategoryBankAccount)
	if len(accounts) != 1 || accounts[0] != "123456789012" {
		t.Errorf("expected single account 123456789012, got %v", accounts)
	}
	for _, acc := range accounts {
		if acc == "9876543210" {
			t.Error("mobile number classified as bank account")
		}
	}
}

func TestUPIExtraction(t *testing.T) {
	set := Extract("send money to scammer@ybl and victim.name@okicici")
	upis := map[string]bool{}
	for _, u := range set.Values(CategoryUPI) {
		upis[u] = true
	}
	if !upis["scammer@ybl"] || !upis["victim.name@okicici"] {
		t.Errorf("missing UPI ids, got %v", set.Values(CategoryUPI))
	}
}

func TestBareAtDiscarded(t *testing.T) {
	set := Extract("message me @ the office")
	for _, u := range set.Values(CategoryUPI) {
		if u == "@" {
			t.Error("bare @ token must be discarded")
		}
	}
}

func TestLinkWhitelist(t *testing.T) {
	set := Extract("pay at http://evil-bank.xyz/verify not https://www.sbi.co.in/login")
	links := set.Values(CategoryLink)
	if len(links) == 0 {
		t.Fatal("expected phishing link extracted")
	}
	for _, l := range links {
		if isWhitelisted(l) {
			t.Errorf("whitelisted link %s leaked into results", l)
		}
	}
}

func TestShortenerAndSuspiciousTLD(t *testing.T) {
	set := Extract("click bit.ly/abc123 or visit lucky-winner.tk/claim")
	if len(set.Values(CategoryLink)) < 2 {
		t.Errorf("expected shortener and suspicious TLD links, got %v", set.Values(CategoryLink))
	}
}

func TestKeywordPresence(t *testing.T) {
	set := Extract("URGENT: your account is BLOCKED, share OTP now")
	found := map[string]bool{}
	for _, kw := range set.Values(CategoryKeyword) {
		found[kw] = true
	}
	for _, want := range []string{"urgent", "blocked", "otp", "now"} {
		if !found[want] {
			t.Errorf("expected keyword %q recorded", want)
		}
	}
}

func TestMergeIsUnion(t *testing.T) {
	a := Extract("call 9876543210")
	b := Extract("call +919876543210 and pay scammer@ybl")
	merged := Merge(a, b)

	if len(merged.Values(CategoryPhone)) != 1 {
		t.Errorf("merge did not dedup phones: %v", merged.Values(CategoryPhone))
	}
	if len(merged.Values(CategoryUPI)) != 1 {
		t.Errorf("merge lost UPI ids: %v", merged.Values(CategoryUPI))
	}
	// Inputs untouched
	if len(a.Values(CategoryUPI)) != 0 {
		t.Error("Merge mutated its input")
	}
}

func TestEmailIndependentOfUPI(t *testing.T) {
	set := Extract("contact fraud.dept@notabank.com")
	emails := set.Values(CategoryEmail)
	if len(emails) != 1 || emails[0] != "fraud.dept@notabank.com" {
		t.Errorf("expected email extracted, got %v", emails)
	}
}
