package classify

import "strings"

// Sections is a plain-text body split into the three zones a reply parser
// cares about, plus the untouched original as a fallback.
type Sections struct {
	Headers string // mobile signatures and leading blanks
	Reply   string // new human content
	History string // quoted original below the reply
	Raw     string
}

type lineZone int

const (
	zoneHeaders lineZone = iota
	zoneReply
	zoneHistory
)

// SplitSections classifies each line of body into headers, reply, or history.
// The walk is a one-way state machine: headers -> reply -> history. Once a
// history marker fires every remaining line is history, even if it looks like
// fresh prose. A body with no markers at all comes back entirely as Reply,
// so ambiguous content is over-included rather than lost.
func SplitSections(body string) Sections {
	out := Sections{Raw: body}

	var headers, reply, history []string
	zone := zoneHeaders

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")

		if zone != zoneHistory && isHistoryMarker(line) {
			zone = zoneHistory
		}

		switch zone {
		case zoneHeaders:
			if isHeaderLine(line) {
				headers = append(headers, line)
				continue
			}
			zone = zoneReply
			reply = append(reply, line)
		case zoneReply:
			reply = append(reply, line)
		case zoneHistory:
			history = append(history, line)
		}
	}

	out.Headers = strings.TrimSpace(strings.Join(headers, "\n"))
	out.Reply = strings.TrimSpace(strings.Join(reply, "\n"))
	out.History = strings.TrimSpace(strings.Join(history, "\n"))
	return out
}

// isHeaderLine: blank lines and mobile signature lines stay in the header
// section while we are still in it.
func isHeaderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, sig := range mobileSignatures {
		if strings.HasPrefix(lower, sig) {
			return true
		}
	}
	return false
}

func isHistoryMarker(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, ">") {
		return true
	}
	if onWrotePattern.MatchString(trimmed) {
		return true
	}
	if headerBlockPattern.MatchString(line) {
		return true
	}
	if bannerPattern.MatchString(trimmed) {
		return true
	}
	return separatorPattern.MatchString(trimmed)
}
