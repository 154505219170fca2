// Package session implements the device session coordinator: the
// authentication flow state machine, family membership lifecycle, the
// overdue-penalty sweep, and debounced outbound synchronization of the
// locally owned collections.
package session

import (
	"errors"

	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/store"
)

// Phase is the session state machine's current state.
type Phase string

const (
	// PhaseLoading is the transient initial state entered at startup and
	// after sign-out-then-bootstrap.
	PhaseLoading         Phase = "loading"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseProfileSetup    Phase = "profile_setup"
	PhaseChoosingRole    Phase = "choosing_role"
	PhaseParent          Phase = "parent"
	PhaseKid             Phase = "kid"
)

var (
	// ErrSignInInFlight is returned when a sign-in attempt is already
	// pending; attempts are serialized rather than raced.
	ErrSignInInFlight = errors.New("a sign-in attempt is already in flight")
	// ErrNotParent guards operations reserved for parent sessions.
	ErrNotParent = errors.New("operation requires a parent session")
	// ErrNotKid guards operations reserved for kid sessions.
	ErrNotKid = errors.New("operation requires a kid session")
	// ErrNoFamily is returned when an operation needs a loaded family.
	ErrNoFamily = errors.New("no family loaded")
	// ErrNoProfile is returned when an operation needs a signed-in profile.
	ErrNoProfile = errors.New("no profile loaded")
)

// State is the read-only snapshot published to subscribers after every
// mutation. Slices are copies; subscribers may keep them.
type State struct {
	Phase     Phase              `json:"phase"`
	Profile   *model.Profile     `json:"profile,omitempty"`
	Family    *model.Family      `json:"family,omitempty"`
	Kids      []model.Kid        `json:"kids"`
	Chores    []model.Chore      `json:"chores"`
	Rewards   []model.Reward     `json:"rewards"`
	LastError string             `json:"last_error,omitempty"`
}

// FamilyStore is the remote-store contract the coordinator pulls
// snapshots from and pushes collections to. *store.FamilyStore satisfies
// it; session tests substitute a fake.
type FamilyStore interface {
	GetProfile(userID string) (*model.Profile, error)
	SaveProfile(p *model.Profile) error

	CreateFamily(name, ownerID string) (*model.Family, error)
	JoinFamily(code, userID string, role model.Role) (*model.Family, model.Role, error)
	VerifyMembership(familyID, userID string) (*model.Role, error)
	LeaveFamily(familyID, userID string) error
	FetchSnapshot(familyID string) (*store.Snapshot, error)

	SaveKids(kids []model.Kid, familyID string) error
	SaveChores(chores []model.Chore, familyID string) error
	SaveRewards(rewards []model.Reward, familyID string) error
	UpdateKidCoins(kidID string, delta int, familyID string) error

	CreateSubmission(sub *model.Submission, familyID string) error
	FetchSubmissions(familyID string) ([]model.Submission, error)
	GetSubmission(id, familyID string) (*model.Submission, error)
	UpdateSubmissionStatus(id, familyID string, status model.SubmissionStatus, d model.Decision) error
	CancelSubmission(id, familyID string) error

	FetchHistory(familyID string) ([]model.HistoryEntry, error)
	AddHistoryEntry(e *model.HistoryEntry, familyID string) error
	ReverseHistoryEntry(entryID, familyID string) (*model.HistoryEntry, error)
}

// Notifier receives submission lifecycle events for out-of-band delivery
// (web push). All methods must be non-blocking or fast.
type Notifier interface {
	SubmissionCreated(familyID string, sub model.Submission)
	SubmissionDecided(familyID string, sub model.Submission)
}
