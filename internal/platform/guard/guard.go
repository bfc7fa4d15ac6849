// Package guard decides the outcome of a username/password login attempt and
// maintains the per-account failed-attempt counter and timed lock.
//
// Each account moves between two states:
//
//	Unlocked(n)   --wrong password-->  Unlocked(n+1), or Locked(now+duration) once n+1 reaches the threshold
//	Unlocked(n)   --right password-->  Unlocked(0)
//	Locked(until) --any attempt, until > now--> Locked(until), unchanged
//	Locked(until) --wrong password, until <= now--> Unlocked(1)
//	Locked(until) --right password, until <= now--> Unlocked(0)
//
// The account row is the only state. Writes are compare-and-set on the
// failed-attempt count observed when the row was read, so concurrent attempts
// never lose an increment.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultThreshold    = 5
	DefaultLockDuration = 15 * time.Minute
	DefaultMaxRetries   = 8
)

var (
	// ErrAccountNotFound is returned by an AccountStore when no account has the username.
	ErrAccountNotFound = errors.New("account not found")
	// ErrConflict is returned by an AccountStore when the compare-and-set did not match.
	ErrConflict = errors.New("concurrent login update")
	// ErrPersistence wraps every store failure surfaced by Evaluate.
	ErrPersistence = errors.New("login state persistence failed")
)

type Account struct {
	ID             int
	Username       string
	PasswordHash   string
	Role           string
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
}

// LoginFields is the mutation written back after a password check.
// FailedAttempts and LockedUntil are always written; LastLogin only when set.
type LoginFields struct {
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
}

type AccountStore interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	// UpdateLoginFields applies fields only if the stored failed-attempt count
	// still equals expectedFailedAttempts, and returns ErrConflict otherwise.
	UpdateLoginFields(ctx context.Context, id int, expectedFailedAttempts int, fields LoginFields) error
}

type PasswordVerifier interface {
	Verify(plaintext, hash string) bool
}

// LockNotifier is told about accounts that just became locked.
type LockNotifier interface {
	AccountLocked(ctx context.Context, identity Identity, until time.Time)
}

type Options struct {
	Threshold    int
	LockDuration time.Duration
	// MaxRetries bounds re-evaluation after compare-and-set conflicts.
	MaxRetries int
	Notifier   LockNotifier
}

type Guard struct {
	store        AccountStore
	verifier     PasswordVerifier
	threshold    int
	lockDuration time.Duration
	maxRetries   int
	notifier     LockNotifier

	pending sync.WaitGroup
}

func New(store AccountStore, verifier PasswordVerifier, opts Options) *Guard {
	g := &Guard{
		store:        store,
		verifier:     verifier,
		threshold:    opts.Threshold,
		lockDuration: opts.LockDuration,
		maxRetries:   opts.MaxRetries,
		notifier:     opts.Notifier,
	}
	if g.threshold <= 0 {
		g.threshold = DefaultThreshold
	}
	if g.lockDuration <= 0 {
		g.lockDuration = DefaultLockDuration
	}
	if g.maxRetries <= 0 {
		g.maxRetries = DefaultMaxRetries
	}
	return g
}

// Evaluate runs one login attempt at time now. A non-nil error means the
// outcome could not be made durable and no verdict should be reported.
func (g *Guard) Evaluate(ctx context.Context, username, password string, now time.Time) (Verdict, error) {
	return g.evaluate(ctx, username, password, now, true)
}

// Reauthenticate checks the password of an already signed-in account. It
// counts failures and honors locks exactly like Evaluate, but an accepted
// attempt does not count as a login and leaves last_login untouched.
func (g *Guard) Reauthenticate(ctx context.Context, username, password string, now time.Time) (Verdict, error) {
	return g.evaluate(ctx, username, password, now, false)
}

func (g *Guard) evaluate(ctx context.Context, username, password string, now time.Time, recordLogin bool) (Verdict, error) {
	var (
		checkedHash string
		checked     bool
		matches     bool
	)

	for attempt := 0; attempt < g.maxRetries; attempt++ {
		account, err := g.store.FindByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				return rejected(), nil
			}
			return Verdict{}, fmt.Errorf("%w: find account: %w", ErrPersistence, err)
		}

		if account.LockedUntil != nil && account.LockedUntil.After(now) {
			return locked(retryAfterMinutes(*account.LockedUntil, now)), nil
		}

		// A retry re-reads the row; only a changed hash needs a new check.
		if !checked || checkedHash != account.PasswordHash {
			matches = g.verifier.Verify(password, account.PasswordHash)
			checkedHash = account.PasswordHash
			checked = true
		}

		var (
			fields  LoginFields
			verdict Verdict
		)
		if matches {
			fields = LoginFields{FailedAttempts: 0, LockedUntil: nil}
			if recordLogin {
				fields.LastLogin = &now
			}
			verdict = accepted(account.identity())
		} else {
			fields = g.failure(account, now)
			verdict = rejected()
		}

		err = g.store.UpdateLoginFields(ctx, account.ID, account.FailedAttempts, fields)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return Verdict{}, fmt.Errorf("%w: update account %d: %w", ErrPersistence, account.ID, err)
		}

		if fields.LockedUntil != nil && g.notifier != nil {
			g.notify(ctx, account.identity(), *fields.LockedUntil)
		}

		return verdict, nil
	}

	return Verdict{}, fmt.Errorf("%w: %w after %d attempts", ErrPersistence, ErrConflict, g.maxRetries)
}

// notify runs the lock notifier off the request path. It keeps the request's
// values but not its cancellation.
func (g *Guard) notify(ctx context.Context, identity Identity, until time.Time) {
	ctx = context.WithoutCancel(ctx)

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()
		g.notifier.AccountLocked(ctx, identity, until)
	}()
}

// Wait blocks until every lock notification started so far has returned.
func (g *Guard) Wait() {
	g.pending.Wait()
}

func (g *Guard) failure(account *Account, now time.Time) LoginFields {
	count := account.FailedAttempts
	// An expired lock ends the previous streak.
	if account.LockedUntil != nil {
		count = 0
	}
	count++

	fields := LoginFields{FailedAttempts: count}
	if count >= g.threshold {
		until := now.Add(g.lockDuration)
		fields.LockedUntil = &until
	}
	return fields
}

func (a *Account) identity() Identity {
	return Identity{ID: a.ID, Username: a.Username, Role: a.Role}
}

func retryAfterMinutes(until, now time.Time) int {
	remaining := until.Sub(now)
	return int((remaining + time.Minute - 1) / time.Minute)
}
