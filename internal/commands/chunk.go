package commands

// DiscordMessageLimit is the maximum message length Discord accepts.
const DiscordMessageLimit = 2000

// SplitMessage cuts text into ordered chunks of at most limit runes. Each cut
// happens at the last newline within the limit, or at the limit when the window
// has no usable newline; the newline starts the next chunk so joining the chunks
// reproduces text exactly.
func SplitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
