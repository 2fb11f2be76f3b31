// Package event defines the normalized, provider-agnostic representation of
// webhook deliveries and the mapping from raw GitHub payloads into it.
package event

// Type classifies a normalized webhook event.
type Type string

const (
	TypePush         Type = "push"
	TypePullRequest  Type = "pull_request"
	TypeStatus       Type = "status"
	TypeBranchCreate Type = "create"
	TypeUnknown      Type = "unknown"
)

// PRState is the lifecycle state of a pull request.
type PRState string

const (
	PROpen   PRState = "open"
	PRClosed PRState = "closed"
	PRMerged PRState = "merged"
)

// CIState is the outcome of a CI status update.
type CIState string

const (
	CIPending   CIState = "pending"
	CISuccess   CIState = "success"
	CIFailure   CIState = "failure"
	CIError     CIState = "error"
	CICancelled CIState = "cancelled"
)

// Event is the tagged union over all normalized event variants. Exactly the
// variant named by Type is populated; the others are nil.
type Event struct {
	Type         Type
	Push         *Push
	PullRequest  *PullRequest
	Status       *Status
	BranchCreate *BranchCreate
}

// Push carries the fields the reconciler needs from a push delivery.
type Push struct {
	SHA     string
	Message string
	Author  string
	URL     string
	Branch  string
}

// PullRequest carries the fields the reconciler needs from a pull_request delivery.
type PullRequest struct {
	Number  int
	Title   string
	Body    string
	State   PRState
	HeadRef string
	HeadSHA string
	BaseRef string
	URL     string
}

// Status carries one commit+status pair from a CI status delivery.
type Status struct {
	SHA         string
	State       CIState
	Context     string
	Description string
	TargetURL   string
}

// BranchCreate carries a branch-creation delivery. Only branch refs are
// meaningful downstream; tag creations normalize with Ref left empty.
type BranchCreate struct {
	Ref string
}
