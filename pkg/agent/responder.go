package agent

import (
	"math/rand"
	"strings"
)

// Phase is the current engagement posture across the conversation arc.
type Phase string

const (
	PhaseInitialConfusion Phase = "initial_confusion"
	PhaseAskingForDetails Phase = "asking_for_details"
	PhaseShowingConcern   Phase = "showing_concern"
	PhaseProbingForInfo   Phase = "probing_for_info"
	PhaseShowingHesitancy Phase = "showing_hesitation"
	PhaseBuildingTrust    Phase = "building_trust"
	PhaseStalling         Phase = "stalling"
	PhaseFakeInfo         Phase = "providing_fake_info"
	PhaseSelfCorrection   Phase = "self_correction"
)

// phaseTemplates hold the canned victim lines per engagement phase.
var phaseTemplates = map[Phase][]string{
	PhaseInitialConfusion: {
		"What? My account will be blocked? But why?",
		"I don't understand, what happened to my account?",
		"Oh no! Please tell me what I should do?",
		"This is very worrying, I have my savings there",
		"Please help me, I am not understanding",
		"What is happening? Please explain properly",
		"I am confused, can you explain again?",
	},
	PhaseAskingForDetails: {
		"But which bank are you calling from?",
		"Can you tell me the reason for blocking?",
		"I have multiple accounts... which one are you talking about?",
		"What should I do to verify? Please guide me",
		"Please tell me your name and employee ID",
		"Which branch office are you from?",
		"What is your designation? Are you the manager?",
	},
	PhaseShowingConcern: {
		"Please don't block my account, all my savings are there!",
		"I am a senior citizen, please solve this problem",
		"This is my only savings... please tell me what to do",
		"I will lose everything... please help me",
		"My grandchildren's school fees are in that account!",
		"I am very worried now... what should I do?",
	},
	PhaseProbingForInfo: {
		"Where should I transfer the money? Give me the account number",
		"What UPI ID should I use for verification?",
		"Give me the link, I will click and verify",
		"Tell me the steps... I will follow everything you say",
		"What information do you need from me?",
		"Can you send me the verification link on WhatsApp?",
		"Which account should I transfer to? Please give full details",
	},
	PhaseShowingHesitancy: {
		"But my son told me not to share OTP with anyone...",
		"I saw news about fraud... are you really from the bank?",
		"Let me call my daughter first and ask...",
		"Can you call me back on the bank's official number?",
		"I heard that banks never ask OTP on call...",
		"Something feels wrong... let me think about it",
	},
	PhaseBuildingTrust: {
		"Yes yes, I believe you. What should I do?",
		"Thank you for helping me. Please guide me step by step",
		"I trust you, you seem very helpful",
		"Ok, I am ready to do what you say",
		"You are so kind to help an old person like me",
		"Thank god you called, otherwise my money would be lost!",
	},
	PhaseStalling: {
		"One moment, my phone battery is low",
		"Please wait, someone is at the door",
		"Hold on, I am writing down what you said",
		"The network is bad, please repeat",
		"I am searching for my glasses to read the OTP",
		"My hands are shaking, give me 2 minutes",
		"Let me get my passbook, one second",
	},
	PhaseFakeInfo: {
		"Ok, my account number is. Let me check first",
		"The OTP I received is. Wait the message disappeared",
		"Let me transfer the money. The app is loading slowly",
		"I am trying to click the link but it's not opening",
		"OTP is coming. Yes I see a number but screen is dim",
		"I am entering the details. Internet is very slow today",
	},
	PhaseSelfCorrection: {
		"Sorry, I think I gave wrong number. Let me check again",
		"Wait, I made mistake. That was my old account",
		"Oh, I read the OTP wrong, let me see again",
		"My eyes are weak, I think I misread the number",
	},
}

// Topic-steered lines chosen when the scammer's last message clearly asks
// for something specific. Checked before the phase templates.
var (
	otpReplies = []string{
		"OTP is coming... wait... I see a message with numbers",
		"Message came but... the numbers are blurry... my eyes...",
		"4... 7... 3... wait the message scrolled up, let me find it",
		"I got the OTP but it says do not share... should I still tell you?",
		"One minute, OTP message is loading slowly...",
	}
	moneyReplies = []string{
		"Ok, how much do I need to send? And to which account?",
		"I will transfer right now... please give me the UPI ID slowly",
		"My app is loading... it's very slow today...",
		"Ok I am opening my banking app... it's taking time",
	}
	prizeReplies = []string{
		"Oh my god! I won something? But I never entered any lottery!",
		"I won? But which lottery? I don't remember filling any form...",
		"This is like a dream! My first time winning anything! Please tell me the process",
		"I am very happy! A prize! But how did I enter this contest?",
	}
	kycReplies = []string{
		"KYC update? But I did this last year only...",
		"Ok I will verify. What documents do you need from me?",
		"It expired? But my account was working yesterday!",
		"Please guide me step by step, I am not good with technology",
	}
	linkReplies = []string{
		"Link? Please send on WhatsApp, I will click",
		"Website is not loading... my internet is slow",
		"I clicked but phone is showing some warning... should I continue?",
		"Please spell the link address, I will type it manually",
	}
	threatReplies = []string{
		"Police? Arrest? But I am an honest citizen, what did I do wrong?",
		"Please don't arrest me, I have a heart condition!",
		"I will pay whatever fine, please don't send police to my home!",
	}
)

// Responder generates victim replies for one session. Not safe for
// concurrent use; callers serialize per session.
type Responder struct {
	persona         Persona
	rng             *rand.Rand
	turns           int
	hesitationShown bool
	lastReply       string
}

// NewResponder builds a responder around the persona and randomness source.
func NewResponder(persona Persona, rng *rand.Rand) *Responder {
	return &Responder{persona: persona, rng: rng}
}

// Persona returns the victim identity this responder plays.
func (r *Responder) Persona() Persona {
	return r.persona
}

// Reply produces the next victim message for the scammer's latest text,
// given how many turns have already elapsed. The same line is never
// returned twice in a row.
func (r *Responder) Reply(scammerText string, historyLength int) (string, Phase) {
	r.turns++

	if line, ok := r.steeredReply(scammerText); ok {
		r.lastReply = line
		return line, r.phaseFor(historyLength)
	}

	phase := r.phaseFor(historyLength)
	line := r.pickFresh(phaseTemplates[phase])
	r.lastReply = line
	return line, phase
}

// phaseFor maps conversation depth to an engagement phase, with occasional
// hesitation and self-correction so the arc reads naturally.
func (r *Responder) phaseFor(historyLength int) Phase {
	if historyLength > 2 && r.rng.Float64() < 0.1 {
		return PhaseSelfCorrection
	}

	switch {
	case historyLength <= 1:
		return PhaseInitialConfusion
	case historyLength <= 3:
		return r.pickPhase(PhaseAskingForDetails, PhaseShowingConcern)
	case historyLength <= 5:
		if !r.hesitationShown && r.rng.Float64() < 0.3 {
			r.hesitationShown = true
			return PhaseShowingHesitancy
		}
		return r.pickPhase(PhaseProbingForInfo, PhaseBuildingTrust)
	case historyLength <= 8:
		return r.pickPhase(PhaseStalling, PhaseProbingForInfo, PhaseBuildingTrust)
	default:
		return r.pickPhase(PhaseFakeInfo, PhaseStalling, PhaseProbingForInfo)
	}
}

// steeredReply answers direct asks (OTP, money, prize, KYC, link, threat)
// with topic-matched lines instead of generic phase templates.
func (r *Responder) steeredReply(scammerText string) (string, bool) {
	lower := strings.ToLower(scammerText)
	has := func(terms ...string) bool {
		for _, t := range terms {
			if strings.Contains(lower, t) {
				return true
			}
		}
		return false
	}

	switch {
	case has("otp", "code", "password", "pin"):
		return r.pickFresh(otpReplies), true
	case has("won", "prize", "lottery", "winner", "reward", "lucky"):
		return r.pickFresh(prizeReplies), true
	case has("transfer", "send", "pay", "rupee", "amount"):
		return r.pickFresh(moneyReplies), true
	case has("block", "arrest", "police", "legal", "suspend"):
		return r.pickFresh(threatReplies), true
	case has("kyc", "verification", "update", "expire"):
		return r.pickFresh(kycReplies), true
	case has("link", "click", "website", "http"):
		return r.pickFresh(linkReplies), true
	}
	return "", false
}

func (r *Responder) pickPhase(phases ...Phase) Phase {
	return phases[r.rng.Intn(len(phases))]
}

// pickFresh selects a line distinct from the previous reply.
func (r *Responder) pickFresh(lines []string) string {
	line := lines[r.rng.Intn(len(lines))]
	if line == r.lastReply && len(lines) > 1 {
		for _, alt := range lines {
			if alt != r.lastReply {
				return alt
			}
		}
	}
	return line
}
