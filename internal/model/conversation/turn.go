package conversation

// Role tags who produced a turn.
type Role string

const (
	// RoleUser is the interviewer side of the conversation.
	RoleUser Role = "user"
	// RoleModel is the persona answering the interviewer.
	RoleModel Role = "model"
)

// Turn is one utterance in a session. Order is the model context window.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserTurn builds an interviewer turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// ModelTurn builds a persona turn.
func ModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Text: text}
}

// Clone returns an independent copy of turns so callers never share backing arrays.
func Clone(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	copied := make([]Turn, len(turns))
	copy(copied, turns)
	return copied
}
