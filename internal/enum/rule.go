package enum

type Field string

const (
	FieldSubject       Field = "subject"
	FieldSender        Field = "sender"
	FieldRecipient     Field = "recipient"
	FieldBody          Field = "body"
	FieldSubjectOrBody Field = "subject_or_body"
	FieldSenderDomain  Field = "sender_domain"
)

func (f Field) String() string {
	return string(f)
}

func (f Field) IsValid() bool {
	switch f {
	case FieldSubject, FieldSender, FieldRecipient, FieldBody, FieldSubjectOrBody, FieldSenderDomain:
		return true
	}
	return false
}

type Operator string

const (
	OperatorContains      Operator = "contains"
	OperatorNotContains   Operator = "not_contains"
	OperatorStartsWith    Operator = "starts_with"
	OperatorEndsWith      Operator = "ends_with"
	OperatorEquals        Operator = "equals"
	OperatorNotEquals     Operator = "not_equals"
	OperatorRegexMatch    Operator = "regex_match"
	OperatorContainsAnyOf Operator = "contains_any_of"
)

func (o Operator) String() string {
	return string(o)
}

func (o Operator) IsValid() bool {
	switch o {
	case OperatorContains, OperatorNotContains, OperatorStartsWith, OperatorEndsWith,
		OperatorEquals, OperatorNotEquals, OperatorRegexMatch, OperatorContainsAnyOf:
		return true
	}
	return false
}

type ActionKind string

const (
	ActionMove          ActionKind = "move"
	ActionCopy          ActionKind = "copy"
	ActionMarkRead      ActionKind = "mark_read"
	ActionMarkImportant ActionKind = "mark_important"
	ActionDelete        ActionKind = "delete"
	ActionLabel         ActionKind = "label"
)

func (k ActionKind) String() string {
	return string(k)
}

func (k ActionKind) IsValid() bool {
	switch k {
	case ActionMove, ActionCopy, ActionMarkRead, ActionMarkImportant, ActionDelete, ActionLabel:
		return true
	}
	return false
}

// RequiresFolder reports whether the action needs a destination folder.
func (k ActionKind) RequiresFolder() bool {
	return k == ActionMove || k == ActionCopy
}

// Stage identifies which step of the classification cascade produced an action.
type Stage string

const (
	StageNone  Stage = "none"
	StageChain Stage = "chain"
	StageRule  Stage = "rule"
	StageCC    Stage = "cc"
)

func (s Stage) String() string {
	return string(s)
}
