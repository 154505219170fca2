package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fennwick/hearth/internal/blob"
	"github.com/fennwick/hearth/internal/identity"
	"github.com/fennwick/hearth/internal/model"
	"github.com/fennwick/hearth/internal/store"
	"github.com/fennwick/hearth/internal/submission"
)

const defaultDebounce = 2 * time.Second

// Config wires a Coordinator's collaborators.
type Config struct {
	Provider identity.Provider
	Store    FamilyStore
	Blobs    blob.Store
	Notifier Notifier // optional
	Logger   *slog.Logger
	// Debounce is the quiet period before a changed collection is pushed
	// outward. Defaults to 2s.
	Debounce time.Duration
}

// Coordinator owns the authoritative local copies of the loaded family
// and its collections and exposes every mutating operation to the
// presentation layer. All state mutation is serialized by one mutex; the
// source's cooperative suspension flag is not enough once callers are
// truly concurrent.
type Coordinator struct {
	mu       sync.Mutex
	provider identity.Provider
	store    FamilyStore
	blobs    blob.Store
	workflow *submission.Workflow
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	debounce time.Duration

	phase     Phase
	profile   *model.Profile
	family    *model.Family
	kids      []model.Kid
	chores    []model.Chore
	rewards   []model.Reward
	lastError string

	syncSuspended  bool
	sweepInFlight  bool
	signInInFlight bool

	dirtyTimers map[collection]*time.Timer
	subscribers map[chan State]struct{}
}

func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	c := &Coordinator{
		provider:    cfg.Provider,
		store:       cfg.Store,
		blobs:       cfg.Blobs,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		now:         time.Now,
		debounce:    cfg.Debounce,
		phase:       PhaseLoading,
		dirtyTimers: make(map[collection]*time.Timer),
		subscribers: make(map[chan State]struct{}),
	}
	c.workflow = submission.NewWorkflow(cfg.Store, cfg.Blobs, cfg.Logger.With("component", "submission"))
	return c
}

// CurrentState returns a snapshot of the published session state.
func (c *Coordinator) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Subscribe registers a listener for state snapshots. The returned cancel
// function must be called to release the subscription. Snapshots are
// dropped, not queued, when the listener falls behind.
func (c *Coordinator) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	ch <- c.stateLocked()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// Bootstrap clears local family data and resolves the device's current
// identity: a present identity loads the session, otherwise the session
// lands in Unauthenticated.
func (c *Coordinator) Bootstrap(ctx context.Context) {
	c.mu.Lock()
	c.phase = PhaseLoading
	c.clearFamilyLocked()
	c.profile = nil
	c.notifyLocked()
	c.mu.Unlock()

	id, err := c.provider.CurrentIdentity(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("resolve current identity", "error", err)
		c.lastError = "Could not check who is signed in."
		c.phase = PhaseUnauthenticated
		c.notifyLocked()
		return
	}
	if id == nil {
		c.phase = PhaseUnauthenticated
		c.notifyLocked()
		return
	}
	c.loadSessionLocked(*id)
}

// SignIn exchanges the method for an identity and loads the session.
// Exactly one attempt may be in flight; a concurrent second attempt is
// rejected instead of racing two identity exchanges.
func (c *Coordinator) SignIn(ctx context.Context, method identity.Method) error {
	c.mu.Lock()
	if c.signInInFlight {
		c.mu.Unlock()
		return ErrSignInInFlight
	}
	c.signInInFlight = true
	c.mu.Unlock()

	id, err := c.provider.SignIn(ctx, method)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.signInInFlight = false
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrCancelled):
			c.lastError = "Sign-in cancelled."
		case errors.Is(err, identity.ErrNotConfigured):
			c.lastError = "Sign-in is not set up on this device."
		default:
			c.lastError = "Sign-in failed. Please try again."
		}
		c.phase = PhaseUnauthenticated
		c.notifyLocked()
		return err
	}
	c.loadSessionLocked(*id)
	return nil
}

// SignOut clears all local state and returns to Unauthenticated.
func (c *Coordinator) SignOut(ctx context.Context) error {
	if err := c.provider.SignOut(ctx); err != nil {
		c.logger.Error("sign out", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = nil
	c.clearFamilyLocked()
	c.lastError = ""
	c.phase = PhaseUnauthenticated
	c.notifyLocked()
	return nil
}

// SetupProfile records the display name collected during onboarding.
func (c *Coordinator) SetupProfile(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return ErrNoProfile
	}
	if name == "" {
		return errors.New("display name is required")
	}

	c.profile.Name = name
	if err := c.store.SaveProfile(c.profile); err != nil {
		c.failLocked("Could not save your profile.", err)
		return err
	}
	if c.profile.InFamily() {
		c.loadFamilyLocked()
	} else {
		c.phase = PhaseChoosingRole
	}
	c.notifyLocked()
	return nil
}

// CreateFamily creates a family owned by the current profile and enters
// the parent session.
func (c *Coordinator) CreateFamily(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return ErrNoProfile
	}

	family, err := c.store.CreateFamily(name, c.profile.ID)
	if err != nil {
		c.failLocked("Could not create the family.", err)
		return err
	}

	role := model.RoleParent
	c.profile.Role = &role
	c.profile.FamilyID = &family.ID
	if err := c.store.SaveProfile(c.profile); err != nil {
		c.failLocked("Could not save your profile.", err)
		return err
	}

	c.loadFamilyLocked()
	c.notifyLocked()
	return nil
}

// JoinFamily joins the family matching the invite code with the requested
// role. Joining while already a member of another family leaves that
// family first.
func (c *Coordinator) JoinFamily(code string, role model.Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return ErrNoProfile
	}
	if !role.Valid() {
		return errors.New("invalid role")
	}

	if c.profile.InFamily() {
		if err := c.leaveFamilyLocked(); err != nil {
			return err
		}
		// The old membership is gone even if the join below fails, so the
		// session is back at role selection from here on.
		c.phase = PhaseChoosingRole
	}

	family, actualRole, err := c.store.JoinFamily(code, c.profile.ID, role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.lastError = "No family found for that invite code."
			c.notifyLocked()
		} else {
			c.failLocked("Could not join the family.", err)
		}
		return err
	}

	c.profile.Role = &actualRole
	c.profile.FamilyID = &family.ID
	if err := c.store.SaveProfile(c.profile); err != nil {
		c.failLocked("Could not save your profile.", err)
		return err
	}

	c.loadFamilyLocked()
	c.notifyLocked()
	return nil
}

// LeaveFamily removes the current membership (deleting the family when
// this user was its last parent) and returns to role selection.
func (c *Coordinator) LeaveFamily() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return ErrNoProfile
	}
	if !c.profile.InFamily() {
		return ErrNoFamily
	}
	if err := c.leaveFamilyLocked(); err != nil {
		return err
	}
	c.phase = PhaseChoosingRole
	c.notifyLocked()
	return nil
}

// Refresh re-verifies membership and reloads the family snapshot. This is
// the explicit retry path after a failed load.
func (c *Coordinator) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return ErrNoProfile
	}
	if !c.profile.InFamily() {
		return ErrNoFamily
	}
	c.verifyAndLoadFamilyLocked()
	c.notifyLocked()
	return nil
}

// loadSessionLocked drives the post-identity part of the state machine:
// profile fetch/create, name check, membership verification, family load.
func (c *Coordinator) loadSessionLocked(id identity.Identity) {
	profile, err := c.store.GetProfile(id.ID)
	if err != nil {
		c.logger.Error("load profile", "user_id", id.ID, "error", err)
		c.lastError = "Could not load your profile."
		c.phase = PhaseUnauthenticated
		c.notifyLocked()
		return
	}
	if profile == nil {
		// First sign-in: the profile is created and persisted immediately.
		profile = &model.Profile{ID: id.ID, Name: id.Name, CreatedAt: c.now().UTC()}
		if err := c.store.SaveProfile(profile); err != nil {
			c.logger.Error("create profile", "user_id", id.ID, "error", err)
			c.lastError = "Could not create your profile."
			c.phase = PhaseUnauthenticated
			c.notifyLocked()
			return
		}
	}
	c.profile = profile

	if profile.Name == "" {
		c.phase = PhaseProfileSetup
		c.notifyLocked()
		return
	}
	if !profile.InFamily() {
		c.phase = PhaseChoosingRole
		c.notifyLocked()
		return
	}
	c.verifyAndLoadFamilyLocked()
	c.notifyLocked()
}

// verifyAndLoadFamilyLocked checks the profile's membership against the
// store. Gone or unverifiable membership defensively clears the profile's
// family binding and falls back to role selection.
func (c *Coordinator) verifyAndLoadFamilyLocked() {
	role, err := c.store.VerifyMembership(*c.profile.FamilyID, c.profile.ID)
	if err != nil || role == nil {
		if err != nil {
			c.logger.Warn("verify membership", "family_id", *c.profile.FamilyID, "error", err)
		}
		c.profile.Role = nil
		c.profile.FamilyID = nil
		if err := c.store.SaveProfile(c.profile); err != nil {
			c.logger.Error("clear stale membership", "error", err)
		}
		c.clearFamilyLocked()
		c.phase = PhaseChoosingRole
		return
	}

	// The verified role wins over whatever the profile claims.
	c.profile.Role = role
	c.loadFamilyLocked()
}

// loadFamilyLocked replaces local collections wholesale from a fresh
// snapshot. Outbound sync is suspended before the fetch; on failure the
// collections are cleared and suspension stays engaged so the empty local
// state can never be pushed over real remote data.
func (c *Coordinator) loadFamilyLocked() {
	c.syncSuspended = true

	snap, err := c.store.FetchSnapshot(*c.profile.FamilyID)
	if err != nil {
		c.logger.Error("fetch family snapshot", "family_id", *c.profile.FamilyID, "error", err)
		c.family = nil
		c.kids = nil
		c.chores = nil
		c.rewards = nil
		c.lastError = "Could not load your family. Pull to refresh."
		c.phase = c.phaseForRoleLocked()
		return
	}

	c.family = snap.Family
	c.kids = snap.Kids
	c.chores = snap.Chores
	c.rewards = snap.Rewards
	c.syncSuspended = false
	c.lastError = ""
	c.phase = c.phaseForRoleLocked()

	if *c.profile.Role == model.RoleParent {
		c.runOverdueSweepLocked()
	}
}

func (c *Coordinator) leaveFamilyLocked() error {
	if err := c.store.LeaveFamily(*c.profile.FamilyID, c.profile.ID); err != nil {
		c.failLocked("Could not leave the family.", err)
		return err
	}
	c.profile.Role = nil
	c.profile.FamilyID = nil
	if err := c.store.SaveProfile(c.profile); err != nil {
		c.failLocked("Could not save your profile.", err)
		return err
	}
	c.clearFamilyLocked()
	return nil
}

func (c *Coordinator) phaseForRoleLocked() Phase {
	if c.profile != nil && c.profile.Role != nil && *c.profile.Role == model.RoleKid {
		return PhaseKid
	}
	return PhaseParent
}

// clearFamilyLocked drops the local family copies. Suspension is engaged:
// there is nothing meaningful left to push.
func (c *Coordinator) clearFamilyLocked() {
	c.family = nil
	c.kids = nil
	c.chores = nil
	c.rewards = nil
	c.syncSuspended = true
	for _, t := range c.dirtyTimers {
		t.Stop()
	}
	clear(c.dirtyTimers)
}

// failLocked normalizes an error to the single user-visible message slot.
// Last write wins.
func (c *Coordinator) failLocked(msg string, err error) {
	c.logger.Error(msg, "error", err)
	c.lastError = msg
	c.notifyLocked()
}

func (c *Coordinator) stateLocked() State {
	s := State{
		Phase:     c.phase,
		Kids:      append([]model.Kid(nil), c.kids...),
		Chores:    append([]model.Chore(nil), c.chores...),
		Rewards:   append([]model.Reward(nil), c.rewards...),
		LastError: c.lastError,
	}
	if c.profile != nil {
		p := *c.profile
		s.Profile = &p
	}
	if c.family != nil {
		f := *c.family
		s.Family = &f
	}
	return s
}

func (c *Coordinator) notifyLocked() {
	state := c.stateLocked()
	for ch := range c.subscribers {
		select {
		case ch <- state:
		default:
			// Subscriber is behind — drop rather than block.
		}
	}
}

// requireParentLocked guards parent-only mutations.
func (c *Coordinator) requireParentLocked() error {
	if c.profile == nil {
		return ErrNoProfile
	}
	if c.profile.Role == nil || *c.profile.Role != model.RoleParent {
		return ErrNotParent
	}
	if c.family == nil {
		return ErrNoFamily
	}
	return nil
}

func (c *Coordinator) requireKidLocked() error {
	if c.profile == nil {
		return ErrNoProfile
	}
	if c.profile.Role == nil || *c.profile.Role != model.RoleKid {
		return ErrNotKid
	}
	if c.family == nil {
		return ErrNoFamily
	}
	return nil
}

func (c *Coordinator) kidByIDLocked(kidID string) (*model.Kid, error) {
	for i := range c.kids {
		if c.kids[i].ID == kidID {
			return &c.kids[i], nil
		}
	}
	return nil, fmt.Errorf("kid %s: %w", kidID, store.ErrNotFound)
}

func (c *Coordinator) choreByIDLocked(choreID string) (*model.Chore, error) {
	for i := range c.chores {
		if c.chores[i].ID == choreID {
			return &c.chores[i], nil
		}
	}
	return nil, fmt.Errorf("chore %s: %w", choreID, store.ErrNotFound)
}

func (c *Coordinator) rewardByIDLocked(rewardID string) (*model.Reward, error) {
	for i := range c.rewards {
		if c.rewards[i].ID == rewardID {
			return &c.rewards[i], nil
		}
	}
	return nil, fmt.Errorf("reward %s: %w", rewardID, store.ErrNotFound)
}
