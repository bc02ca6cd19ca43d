package domain

// ArtifactStatus is the content artifact lifecycle.
// The lattice only moves forward: draft -> optimizing -> published -> indexed.
type ArtifactStatus string

const (
	// ArtifactDraft is a freshly generated article.
	ArtifactDraft ArtifactStatus = "draft"
	// ArtifactOptimizing means on-page optimization has been applied.
	ArtifactOptimizing ArtifactStatus = "optimizing"
	// ArtifactPublished means at least one channel accepted the article.
	ArtifactPublished ArtifactStatus = "published"
	// ArtifactIndexed means the article was observed in search results.
	ArtifactIndexed ArtifactStatus = "indexed"
)

// artifactOrder maps each artifact status to its position in the lattice.
var artifactOrder = map[ArtifactStatus]int{
	ArtifactDraft:      1,
	ArtifactOptimizing: 2,
	ArtifactPublished:  3,
	ArtifactIndexed:    4,
}

// IsValid reports whether s is a recognised artifact status.
func (s ArtifactStatus) IsValid() bool {
	_, ok := artifactOrder[s]
	return ok
}

// Before reports whether s precedes other in the lattice.
func (s ArtifactStatus) Before(other ArtifactStatus) bool {
	return artifactOrder[s] < artifactOrder[other]
}

// MessageStatus is the delivery-tracking state of an outreach message.
type MessageStatus string

const (
	// MessageSent means the outbound channel accepted the message.
	MessageSent MessageStatus = "sent"
	// MessageDelivered means the receiving server accepted the message.
	MessageDelivered MessageStatus = "delivered"
	// MessageOpened means the tracking pixel was fetched.
	MessageOpened MessageStatus = "opened"
	// MessageClicked means a tracked link was followed.
	MessageClicked MessageStatus = "clicked"
	// MessageReplied means a correlated reply arrived. Terminal.
	MessageReplied MessageStatus = "replied"
	// MessageBounced means the message could not be delivered. Terminal.
	MessageBounced MessageStatus = "bounced"
)

// messageRank orders the engagement ladder sent < delivered < opened < clicked.
// Replied and bounced sit outside the ladder; see CanTransition.
var messageRank = map[MessageStatus]int{
	MessageSent:      1,
	MessageDelivered: 2,
	MessageOpened:    3,
	MessageClicked:   4,
}

// IsValid reports whether s is a recognised message status.
func (s MessageStatus) IsValid() bool {
	if _, ok := messageRank[s]; ok {
		return true
	}
	return s == MessageReplied || s == MessageBounced
}

// IsTerminal reports whether no further transitions are possible from s.
func (s MessageStatus) IsTerminal() bool {
	return s == MessageReplied || s == MessageBounced
}

// CanTransition reports whether moving from s to next is a forward step.
// Transitions are monotonic: the ladder never regresses, and replied/bounced
// are reachable from any non-terminal state. A same-state transition is not a
// forward step; callers treat it as an idempotent replay.
func (s MessageStatus) CanTransition(next MessageStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next.IsTerminal() {
		return true
	}
	return messageRank[next] > messageRank[s]
}
