package domain

// Field constants for the canonical JSON form.
const (
	// KeyActions is the top-level key holding the ordered root actions.
	KeyActions = "actions"

	// KeyVerb selects the action type inside an action object.
	KeyVerb = "verb"

	// KeySubactions holds the nested child list of a composite action.
	KeySubactions = "subactions"
)

