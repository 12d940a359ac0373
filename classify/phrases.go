package classify

import "regexp"

// The phrase lists below are versioned data, not incidental literals: tests
// pin exact match sets against them, and tuning detection means editing these
// tables rather than the control flow.

// bounceSenderPattern matches the From / Return-Path of delivery subsystems.
var bounceSenderPattern = regexp.MustCompile(`(?i)(mailer-daemon|postmaster|mail delivery (subsystem|system)|bounce|double-bounce|no[-_.]?reply@.*bounce)`)

// bouncePhrases are scanned against the plain-text body as a last resort,
// after header and DSN part inspection.
var bouncePhrases = []string{
	"delivery to the following recipient failed",
	"delivery has failed",
	"could not be delivered",
	"undeliverable",
	"undelivered mail returned to sender",
	"mailbox unavailable",
	"mailbox is full",
	"mailbox not found",
	"user unknown",
	"unknown user",
	"no such user",
	"recipient address rejected",
	"address not found",
	"does not exist",
	"550 ",
	"550-",
	"551 ",
	"553 ",
	"554 ",
	"permanent failure",
	"permanent error",
	"this is a permanent error",
}

// autoReplyHeaderValues: Precedence values that mark bulk/auto traffic.
var autoReplyPrecedence = []string{"bulk", "auto_reply"}

// autoReplySubjects are matched case-insensitively against the Subject line
// of non-bounce inbound mail. First match wins.
var autoReplySubjects = []string{
	"out of office",
	"out of the office",
	"ooo:",
	"automatic reply",
	"automated reply",
	"auto-reply",
	"autoreply",
	"auto response",
	"autoresponse",
	"away from the office",
	"on vacation",
	"on holiday",
	"on annual leave",
	"maternity leave",
	"parental leave",
	"abwesenheitsnotiz", // de
	"automatische antwort",
	"absence du bureau", // fr
	"réponse automatique",
	"respuesta automática", // es
	"fuera de la oficina",
	"afwezig", // nl
	"automatisch antwoord",
	"risposta automatica", // it
	"fuori sede",
	"不在通知", // ja
	"自动回复", // zh
}

// autoReplyBodies are scanned against the body only when no subject phrase
// matched.
var autoReplyBodies = []string{
	"i am currently out of the office",
	"i am out of the office",
	"i'm currently out of the office",
	"i will be out of the office",
	"currently on vacation",
	"currently on holiday",
	"currently on leave",
	"limited access to email",
	"limited access to my email",
	"will respond to your email when i return",
	"will reply to your message when i return",
	"this is an automated response",
	"this is an automatic reply",
	"thank you for your email. i am",
	"je suis absent",
	"ich bin außer haus",
	"estoy fuera de la oficina",
}

// mobileSignatures are lines tolerated at the very top of a reply without
// ending the header section.
var mobileSignatures = []string{
	"sent from my iphone",
	"sent from my ipad",
	"sent from my android",
	"sent from my samsung",
	"sent from my galaxy",
	"sent from my mobile",
	"sent from my phone",
	"sent from mobile",
	"get outlook for ios",
	"get outlook for android",
	"sent from yahoo mail",
	"sent via mobile",
}

// History markers: once any of these fires, every remaining line is quoted
// history.
var (
	onWrotePattern     = regexp.MustCompile(`(?i)^on .{1,200} wrote:\s*$`)
	headerBlockPattern = regexp.MustCompile(`(?i)^\s*(from|sent|to|subject|date|cc)\s*:\s`)
	bannerPattern      = regexp.MustCompile(`(?i)-{2,}\s*(original|forwarded)\s+message\s*-{0,}`)
	separatorPattern   = regexp.MustCompile(`^\s*[-=_]{8,}\s*$`)
)
