package observability

import "regexp"

// Patterns that may carry credentials: postgres URLs, key=value DSN
// fragments, and password-bearing CLI flags.
var scrubPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(postgres(?:ql)?://[^:/\s]+:)[^@\s]+(@)`),
	regexp.MustCompile(`((?:password|passwd|pwd)=)\S+`),
	regexp.MustCompile(`(--password[= ])\S+`),
}

// Scrub masks credential material embedded in a message so connection
// strings and password flags can be logged safely.
func Scrub(message string) string {
	for _, p := range scrubPatterns {
		message = p.ReplaceAllString(message, "${1}****${2}")
	}
	return message
}
