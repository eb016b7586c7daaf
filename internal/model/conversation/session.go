package conversation

// DefaultSessionID is used when a request carries no session token.
const DefaultSessionID = "default"

// Session is the read model of a conversation exposed to HTTP clients.
type Session struct {
	ID    string `json:"sessionId"`
	Turns []Turn `json:"turns"`
}

// NormalizeSessionID falls back to DefaultSessionID for empty ids.
func NormalizeSessionID(id string) string {
	if id == "" {
		return DefaultSessionID
	}
	return id
}
