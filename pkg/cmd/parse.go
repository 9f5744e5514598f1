package cmd

import "strings"

// Parse splits a chat line into a command name and its arguments. The first
// whitespace-delimited token must start with prefix (compared case-insensitively);
// the name is that token without the prefix, lower-cased. raw is the remaining
// tokens joined by single spaces. ok is false when the line is not a command.
func Parse(prefix, content string) (name string, args []string, raw string, ok bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", nil, "", false
	}

	head := strings.ToLower(fields[0])
	prefix = strings.ToLower(prefix)
	if !strings.HasPrefix(head, prefix) {
		return "", nil, "", false
	}

	name = strings.TrimPrefix(head, prefix)
	if name == "" {
		return "", nil, "", false
	}

	args = fields[1:]
	return name, args, strings.Join(args, " "), true
}
