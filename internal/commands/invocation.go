package commands

import "strings"

// Attachment is a media file uploaded with a slash command.
type Attachment struct {
	ID          string
	URL         string
	Filename    string
	ContentType string
}

// Invocation is one inbound slash command, already stripped of platform types.
type Invocation struct {
	Command     string
	UserID      string
	GuildID     string
	MemberRoles []string
	Strings     map[string]string
	Attachments map[string]Attachment
}

// String returns the trimmed string option, or "" when absent.
func (i Invocation) String(name string) string {
	return strings.TrimSpace(i.Strings[name])
}

// Attachment returns the named attachment when it was uploaded with a usable URL.
func (i Invocation) Attachment(name string) (Attachment, bool) {
	a, ok := i.Attachments[name]
	if !ok || strings.TrimSpace(a.URL) == "" {
		return Attachment{}, false
	}
	return a, true
}
