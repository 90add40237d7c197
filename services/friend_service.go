package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"taskMateAPI/internal/account"
	"taskMateAPI/internal/apperr"
	"taskMateAPI/internal/friendship"
)

const summaryFanOutLimit = 8

// FriendService resolves a user's bidirectional friend graph: friend
// requests, accept/reject responses, and per-friend task completion
// summaries.
type FriendService struct {
	db *pgxpool.Pool
}

func NewFriendService(db *pgxpool.Pool) *FriendService {
	return &FriendService{db: db}
}

// SendRequest creates a pending friendship toward the account registered
// under targetEmail. A row in either direction between the pair blocks a new
// request; the conflict message names the existing status so callers can
// treat "already friends" as informational.
func (s *FriendService) SendRequest(ctx context.Context, accountID uuid.UUID, targetEmail string) (*friendship.Friendship, error) {
	email := strings.ToLower(strings.TrimSpace(targetEmail))
	if email == "" {
		return nil, fmt.Errorf("friend email is required: %w", apperr.ErrValidation)
	}

	var target account.Profile
	err := s.db.QueryRow(ctx, `SELECT id, email FROM profiles WHERE LOWER(email) = $1`, email).Scan(&target.ID, &target.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("SendRequest: No profile for email %s", email)
			return nil, fmt.Errorf("no user found with email %q: %w", email, apperr.ErrNotFound)
		}
		log.Printf("SendRequest: Failed to look up profile: %v", err)
		return nil, fmt.Errorf("failed to look up profile: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	if target.ID == accountID {
		log.Printf("SendRequest: Account %s attempted to friend themselves", accountID)
		return nil, fmt.Errorf("cannot send a friend request to yourself: %w", apperr.ErrInvalidTarget)
	}

	// Both directions must be checked or inverse duplicates slip through.
	checkQuery := `
	SELECT status FROM friendships
	WHERE (requester_id = $1 AND recipient_id = $2)
	   OR (requester_id = $2 AND recipient_id = $1)
	`
	var existing friendship.Status
	err = s.db.QueryRow(ctx, checkQuery, accountID, target.ID).Scan(&existing)
	if err == nil {
		log.Printf("SendRequest: Relationship already exists between %s and %s (status %s)", accountID, target.ID, existing)
		return nil, fmt.Errorf("a friend request between you already exists with status %q: %w", existing, apperr.ErrConflict)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("SendRequest: Failed to check existing friendship: %v", err)
		return nil, fmt.Errorf("failed to check existing friendship: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	f := &friendship.Friendship{
		RequesterID: accountID,
		RecipientID: target.ID,
		Status:      friendship.StatusPending,
		CreatedAt:   time.Now(),
	}

	insertQuery := `
	INSERT INTO friendships (requester_id, recipient_id, status, created_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id
	`
	err = s.db.QueryRow(ctx, insertQuery, f.RequesterID, f.RecipientID, f.Status, f.CreatedAt).Scan(&f.ID)
	if err != nil {
		// The unique index on the normalized pair is the authoritative
		// guard; two concurrent requests can both pass the read above.
		// Re-read so the conflict names the winning row's status.
		if isUniqueViolation(err) {
			winner := friendship.StatusPending
			if rerr := s.db.QueryRow(ctx, checkQuery, accountID, target.ID).Scan(&winner); rerr != nil {
				log.Printf("SendRequest: Failed to re-read pair status after conflict: %v", rerr)
			}
			return nil, fmt.Errorf("a friend request between you already exists with status %q: %w", winner, apperr.ErrConflict)
		}
		log.Printf("SendRequest: Failed to insert friendship: %v", err)
		return nil, fmt.Errorf("failed to create friend request: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	log.Printf("SendRequest: Created pending friendship %d (%s -> %s)", f.ID, accountID, target.ID)
	return f, nil
}

// Respond resolves a pending friendship. Only the recipient may respond, and
// accepted/rejected rows are terminal.
func (s *FriendService) Respond(ctx context.Context, accountID uuid.UUID, relationshipID int64, decision friendship.Decision) (*friendship.Friendship, error) {
	next, ok := decision.Resolve()
	if !ok {
		return nil, fmt.Errorf("decision must be %q or %q: %w", friendship.DecisionAccept, friendship.DecisionReject, apperr.ErrValidation)
	}

	f := &friendship.Friendship{ID: relationshipID}
	query := `
	SELECT requester_id, recipient_id, status, created_at
	FROM friendships
	WHERE id = $1
	`
	err := s.db.QueryRow(ctx, query, relationshipID).Scan(&f.RequesterID, &f.RecipientID, &f.Status, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("friend request not found: %w", apperr.ErrNotFound)
		}
		log.Printf("Respond: Failed to fetch friendship %d: %v", relationshipID, err)
		return nil, fmt.Errorf("failed to fetch friend request: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	if f.RecipientID != accountID {
		log.Printf("Respond: Account %s is not the recipient of friendship %d", accountID, relationshipID)
		return nil, fmt.Errorf("only the recipient can respond to a friend request: %w", apperr.ErrInvalidTarget)
	}

	if f.Status.IsTerminal() {
		return nil, fmt.Errorf("friend request was already %s: %w", f.Status, apperr.ErrConflict)
	}

	update := `
	UPDATE friendships
	SET status = $2
	WHERE id = $1 AND status = $3
	`
	result, err := s.db.Exec(ctx, update, relationshipID, next, friendship.StatusPending)
	if err != nil {
		log.Printf("Respond: Failed to update friendship %d: %v", relationshipID, err)
		return nil, fmt.Errorf("failed to update friend request: %v: %w", err, apperr.ErrRemoteUnavailable)
	}
	if result.RowsAffected() == 0 {
		// Resolved concurrently between our read and write.
		return nil, fmt.Errorf("friend request was already resolved: %w", apperr.ErrConflict)
	}

	f.Status = next
	log.Printf("Respond: Friendship %d is now %s", relationshipID, next)
	return f, nil
}

// ListRelationships returns the user's outgoing edges (all statuses, so the
// sender sees their history) and incoming edges still pending a response,
// each joined with the counterpart's profile email.
func (s *FriendService) ListRelationships(ctx context.Context, accountID uuid.UUID) (*friendship.RelationshipList, error) {
	outgoingQuery := `
	SELECT f.id, f.requester_id, f.recipient_id, f.status, COALESCE(p.email, 'Unknown'), f.created_at
	FROM friendships f
	LEFT JOIN profiles p ON p.id = f.recipient_id
	WHERE f.requester_id = $1
	ORDER BY f.created_at DESC
	`
	incomingQuery := `
	SELECT f.id, f.requester_id, f.recipient_id, f.status, COALESCE(p.email, 'Unknown'), f.created_at
	FROM friendships f
	LEFT JOIN profiles p ON p.id = f.requester_id
	WHERE f.recipient_id = $1 AND f.status = $2
	ORDER BY f.created_at DESC
	`

	outgoing, err := s.queryRelationships(ctx, outgoingQuery, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outgoing relationships: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	incoming, err := s.queryRelationships(ctx, incomingQuery, accountID, friendship.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch incoming relationships: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	return &friendship.RelationshipList{Outgoing: outgoing, Incoming: incoming}, nil
}

func (s *FriendService) queryRelationships(ctx context.Context, query string, args ...interface{}) ([]friendship.RelationshipView, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []friendship.RelationshipView{}
	for rows.Next() {
		var v friendship.RelationshipView
		if err := rows.Scan(&v.ID, &v.RequesterID, &v.RecipientID, &v.Status, &v.Email, &v.CreatedAt); err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

type friendCandidate struct {
	ID    uuid.UUID
	Email string
}

// dedupeFriendCandidates collapses candidates sharing an account ID to one
// entry, keeping the first occurrence. Dedup runs on the counterparty's
// account ID, not the relationship ID: historical data can hold both an
// outgoing and an incoming accepted row for the same pair, which must still
// produce a single summary.
func dedupeFriendCandidates(candidates []friendCandidate) []friendCandidate {
	seen := make(map[uuid.UUID]bool, len(candidates))
	unique := make([]friendCandidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		unique = append(unique, c)
	}
	return unique
}

// FriendTaskSummaries computes one task-completion summary per unique
// accepted friend. Per-friend count failures degrade to zero and a missing
// profile degrades to "Unknown"; a single bad row never blanks the list.
func (s *FriendService) FriendTaskSummaries(ctx context.Context, accountID uuid.UUID) ([]friendship.FriendTaskSummary, error) {
	outgoingQuery := `
	SELECT f.recipient_id, COALESCE(p.email, 'Unknown')
	FROM friendships f
	LEFT JOIN profiles p ON p.id = f.recipient_id
	WHERE f.requester_id = $1 AND f.status = $2
	`
	incomingQuery := `
	SELECT f.requester_id, COALESCE(p.email, 'Unknown')
	FROM friendships f
	LEFT JOIN profiles p ON p.id = f.requester_id
	WHERE f.recipient_id = $1 AND f.status = $2
	`

	var outgoing, incoming []friendCandidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outgoing, err = s.queryCandidates(gctx, outgoingQuery, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		incoming, err = s.queryCandidates(gctx, incomingQuery, accountID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("FriendTaskSummaries: Failed to fetch accepted friendships: %v", err)
		return nil, fmt.Errorf("failed to fetch accepted friendships: %v: %w", err, apperr.ErrRemoteUnavailable)
	}

	friends := dedupeFriendCandidates(append(outgoing, incoming...))

	summaries := make([]friendship.FriendTaskSummary, len(friends))
	counts, cctx := errgroup.WithContext(ctx)
	counts.SetLimit(summaryFanOutLimit)
	for i, fc := range friends {
		i, fc := i, fc
		counts.Go(func() error {
			total, err := s.countTasks(cctx, fc.ID, false)
			if err != nil {
				log.Printf("FriendTaskSummaries: Failed to count tasks for %s: %v", fc.ID, err)
				total = 0
			}
			completed, err := s.countTasks(cctx, fc.ID, true)
			if err != nil {
				log.Printf("FriendTaskSummaries: Failed to count completed tasks for %s: %v", fc.ID, err)
				completed = 0
			}
			summaries[i] = friendship.FriendTaskSummary{
				FriendID:  fc.ID,
				Email:     fc.Email,
				Completed: completed,
				Total:     total,
			}
			return nil
		})
	}
	counts.Wait()

	return summaries, nil
}

func (s *FriendService) queryCandidates(ctx context.Context, query string, accountID uuid.UUID) ([]friendCandidate, error) {
	rows, err := s.db.Query(ctx, query, accountID, friendship.StatusAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []friendCandidate
	for rows.Next() {
		var c friendCandidate
		if err := rows.Scan(&c.ID, &c.Email); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

func (s *FriendService) countTasks(ctx context.Context, ownerID uuid.UUID, onlyDone bool) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE owner_id = $1`
	if onlyDone {
		query += ` AND is_done = true`
	}

	var count int
	if err := s.db.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
