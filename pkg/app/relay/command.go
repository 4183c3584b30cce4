package relay

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/NeuralTrust/TrustRelay/pkg/common"
	"github.com/NeuralTrust/TrustRelay/pkg/domain"
	"github.com/NeuralTrust/TrustRelay/pkg/domain/relay"
)

// nextToken splits s at the first run of whitespace.
func nextToken(s string) (token, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

// commandName returns the leading command of text without a "@botname" suffix.
func commandName(text string) string {
	name, _ := nextToken(text)
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}

// parseReply parses "/a <handle> <message>". The message keeps its inner
// formatting, including newlines.
func parseReply(text string) (relay.Handle, string, error) {
	_, rest := nextToken(text)
	rawHandle, message := nextToken(rest)
	if rawHandle == "" || strings.TrimSpace(message) == "" {
		return 0, "", domain.NewMalformedCommandError(common.ReplyCommand, domain.MissingParts)
	}

	n, err := strconv.ParseInt(rawHandle, 10, 64)
	if err != nil {
		return 0, "", domain.NewMalformedCommandError(common.ReplyCommand, domain.NonNumericHandle)
	}
	// signed input is a number, but no handle is ever issued below 1
	if n < 1 {
		return 0, message, nil
	}
	return relay.Handle(n), message, nil
}
