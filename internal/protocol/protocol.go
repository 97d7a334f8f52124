// Package protocol holds the line-oriented wire vocabulary shared by the
// chat server and its clients. Every line is UTF-8 text terminated by '\n'.
package protocol

import "strings"

const (
	SubmitName     = "SUBMITNAME"
	NameAccepted   = "NAMEACCEPTED"
	MessagePrefix  = "MESSAGE "
	UserListPrefix = "USERLIST "

	// DirectDelimiter separates a receiver name from the text in a directed line.
	DirectDelimiter = ">>"
)

// Message is a parsed client line.
type Message struct {
	Receiver string // empty for broadcast
	Text     string
	Direct   bool
}

// ParseClientLine splits a chat line on the first ">>". Lines without the
// delimiter are broadcasts.
func ParseClientLine(line string) Message {
	receiver, text, found := strings.Cut(line, DirectDelimiter)
	if !found {
		return Message{Text: line}
	}
	return Message{Receiver: receiver, Text: text, Direct: true}
}

// RenderMessage returns "MESSAGE <sender>: <text>".
func RenderMessage(sender, text string) string {
	return MessagePrefix + sender + ": " + text
}

// RenderUserList returns "USERLIST " followed by the comma-joined names.
func RenderUserList(names []string) string {
	return UserListPrefix + strings.Join(names, ",")
}

// RenderDirect formats a directed client line.
func RenderDirect(receiver, text string) string {
	return receiver + DirectDelimiter + text
}

type Kind int

const (
	KindUnknown Kind = iota
	KindSubmitName
	KindNameAccepted
	KindMessage
	KindUserList
)

func (k Kind) String() string {
	switch k {
	case KindSubmitName:
		return "submitname"
	case KindNameAccepted:
		return "nameaccepted"
	case KindMessage:
		return "message"
	case KindUserList:
		return "userlist"
	default:
		return "unknown"
	}
}

// ServerLine is a parsed line received from the server.
type ServerLine struct {
	Kind  Kind
	Text  string   // display text for KindMessage, raw line for KindUnknown
	Names []string // roster for KindUserList
}

// ParseServerLine classifies a line sent by the server. Command words are
// matched by prefix, the way line-protocol clients usually do.
func ParseServerLine(line string) ServerLine {
	switch {
	case strings.HasPrefix(line, SubmitName):
		return ServerLine{Kind: KindSubmitName}
	case strings.HasPrefix(line, NameAccepted):
		return ServerLine{Kind: KindNameAccepted}
	case strings.HasPrefix(line, MessagePrefix):
		return ServerLine{Kind: KindMessage, Text: line[len(MessagePrefix):]}
	case line == strings.TrimSpace(UserListPrefix):
		return ServerLine{Kind: KindUserList, Names: []string{}}
	case strings.HasPrefix(line, UserListPrefix):
		return ServerLine{Kind: KindUserList, Names: ParseUserList(line[len(UserListPrefix):])}
	default:
		return ServerLine{Kind: KindUnknown, Text: line}
	}
}

// ParseUserList splits a comma-separated roster, skipping empty tokens
// such as the one produced by a trailing comma.
func ParseUserList(s string) []string {
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		names = append(names, p)
	}
	return names
}
