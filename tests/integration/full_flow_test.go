package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskMateAPI/internal/apperr"
	"taskMateAPI/internal/friendship"
	"taskMateAPI/services"
	"taskMateAPI/tests/helpers"
)

// TestFriendRequestLifecycle walks the whole friend flow: request, duplicate
// checks in both directions, recipient-only response, terminal states, and
// the per-friend task summaries.
func TestFriendRequestLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	authService := services.NewAuthService(pool)
	friendService := services.NewFriendService(pool)
	taskService := services.NewTaskService(pool)

	ctx := context.Background()

	alice := helpers.CreateTestAccount(t, authService, "alice")
	bob := helpers.CreateTestAccount(t, authService, "bob")

	// Step 1: Alice requests Bob
	t.Log("Step 1: Alice sends a friend request to Bob")

	f, err := friendService.SendRequest(ctx, alice.ID, bob.Email)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusPending, f.Status)
	assert.Equal(t, alice.ID, f.RequesterID)
	assert.Equal(t, bob.ID, f.RecipientID)

	// Step 2: Duplicates are rejected in both directions
	t.Log("Step 2: Duplicate requests conflict in either direction")

	_, err = friendService.SendRequest(ctx, alice.ID, bob.Email)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), string(friendship.StatusPending))

	_, err = friendService.SendRequest(ctx, bob.ID, alice.Email)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), string(friendship.StatusPending))

	// Self-friending and unknown targets
	_, err = friendService.SendRequest(ctx, alice.ID, alice.Email)
	assert.ErrorIs(t, err, apperr.ErrInvalidTarget)

	_, err = friendService.SendRequest(ctx, alice.ID, "nonexistent@x.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Step 3: Bob sees the pending request, Alice sees her outgoing one
	t.Log("Step 3: Relationship lists before the response")

	bobList, err := friendService.ListRelationships(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobList.Incoming, 1)
	assert.Equal(t, f.ID, bobList.Incoming[0].ID)
	assert.Equal(t, friendship.StatusPending, bobList.Incoming[0].Status)
	assert.Equal(t, alice.Email, bobList.Incoming[0].Email)

	aliceList, err := friendService.ListRelationships(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceList.Outgoing, 1)
	assert.Equal(t, bob.Email, aliceList.Outgoing[0].Email)

	// Step 4: Only the recipient may respond
	t.Log("Step 4: Alice cannot respond to her own request")

	_, err = friendService.Respond(ctx, alice.ID, f.ID, friendship.DecisionAccept)
	assert.ErrorIs(t, err, apperr.ErrInvalidTarget)

	// Step 5: Bob accepts
	t.Log("Step 5: Bob accepts")

	resolved, err := friendService.Respond(ctx, bob.ID, f.ID, friendship.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusAccepted, resolved.Status)

	// Accepted rows are terminal
	_, err = friendService.Respond(ctx, bob.ID, f.ID, friendship.DecisionReject)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// The accepted row stays visible to Alice and leaves Bob's inbox
	aliceList, err = friendService.ListRelationships(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceList.Outgoing, 1)
	assert.Equal(t, friendship.StatusAccepted, aliceList.Outgoing[0].Status)

	bobList, err = friendService.ListRelationships(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobList.Incoming)

	// Step 6: Bob does 3 of 5 tasks; Alice's summary reflects it
	t.Log("Step 6: Task summaries")

	for i := 0; i < 5; i++ {
		created, err := taskService.Create(ctx, bob.ID, "errand")
		require.NoError(t, err)
		if i < 3 {
			_, err = taskService.Toggle(ctx, bob.ID, created.ID)
			require.NoError(t, err)
		}
	}

	summaries, err := friendService.FriendTaskSummaries(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, bob.ID, summaries[0].FriendID)
	assert.Equal(t, bob.Email, summaries[0].Email)
	assert.Equal(t, 3, summaries[0].Completed)
	assert.Equal(t, 5, summaries[0].Total)
	assert.LessOrEqual(t, summaries[0].Completed, summaries[0].Total)

	// Bob's view of Alice collapses to one entry as well
	bobSummaries, err := friendService.FriendTaskSummaries(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobSummaries, 1)
	assert.Equal(t, alice.ID, bobSummaries[0].FriendID)
	assert.Equal(t, 0, bobSummaries[0].Total)
}

func TestFriendTaskSummaries_NoFriends(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	authService := services.NewAuthService(pool)
	friendService := services.NewFriendService(pool)

	loner := helpers.CreateTestAccount(t, authService, "loner")

	summaries, err := friendService.FriendTaskSummaries(context.Background(), loner.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

// A friend whose profile row has gone missing still shows up in the
// summaries, just as "Unknown" with zeroed counts.
func TestFriendTaskSummaries_MissingProfile(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	authService := services.NewAuthService(pool)
	friendService := services.NewFriendService(pool)

	ctx := context.Background()

	frank := helpers.CreateTestAccount(t, authService, "frank")
	grace := helpers.CreateTestAccount(t, authService, "grace")

	f, err := friendService.SendRequest(ctx, frank.ID, grace.Email)
	require.NoError(t, err)

	_, err = friendService.Respond(ctx, grace.ID, f.ID, friendship.DecisionAccept)
	require.NoError(t, err)

	// The profile mirror can lag behind accounts; the friendship row survives
	_, err = pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, grace.ID)
	require.NoError(t, err)

	summaries, err := friendService.FriendTaskSummaries(ctx, frank.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, grace.ID, summaries[0].FriendID)
	assert.Equal(t, "Unknown", summaries[0].Email)
	assert.Equal(t, 0, summaries[0].Completed)
	assert.Equal(t, 0, summaries[0].Total)
}

func TestRespond_Reject(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	authService := services.NewAuthService(pool)
	friendService := services.NewFriendService(pool)

	ctx := context.Background()

	carol := helpers.CreateTestAccount(t, authService, "carol")
	dave := helpers.CreateTestAccount(t, authService, "dave")

	f, err := friendService.SendRequest(ctx, carol.ID, dave.Email)
	require.NoError(t, err)

	rejected, err := friendService.Respond(ctx, dave.ID, f.ID, friendship.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusRejected, rejected.Status)

	// Rejection is terminal: no re-request path for the pair, and the
	// conflict says why
	_, err = friendService.SendRequest(ctx, carol.ID, dave.Email)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), string(friendship.StatusRejected))

	// Rejected friends never show up in summaries
	summaries, err := friendService.FriendTaskSummaries(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestRespond_UnknownRelationship(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	authService := services.NewAuthService(pool)
	friendService := services.NewFriendService(pool)

	eve := helpers.CreateTestAccount(t, authService, "eve")

	_, err := friendService.Respond(context.Background(), eve.ID, 999999999, friendship.DecisionAccept)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
