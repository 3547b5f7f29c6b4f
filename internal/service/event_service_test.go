package service

import (
	"adiestra/events-app/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateEvent_LinksIntoTrainer(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	trainer, ownerViewer := env.seedTrainer("trainer")

	event, err := env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{
		Name:     "Session",
		Date:     futureDate(),
		Capacity: intPtr(5),
	})
	require.NoError(t, err)

	stored, err := env.trainerRepo.GetByID(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.EventIDs, event.ID)
}

func TestCreateEvent_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	trainer, ownerViewer := env.seedTrainer("trainer")

	_, err := env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{Date: futureDate()})
	assert.ErrorIs(t, err, ErrInvalidEventData)

	_, err = env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{Name: "No date"})
	assert.ErrorIs(t, err, ErrInvalidEventData)

	_, err = env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{
		Name:     "Bad capacity",
		Date:     futureDate(),
		Capacity: intPtr(0),
	})
	assert.ErrorIs(t, err, ErrInvalidEventData)
}

func TestCreateEvent_OwnershipRequired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	trainer, _ := env.seedTrainer("trainer")
	_, otherViewer := env.seedTrainer("other")

	_, err := env.events.CreateEvent(ctx, otherViewer, trainer.ID, EventInput{
		Name: "Not yours",
		Date: futureDate(),
	})
	assert.ErrorIs(t, err, ErrEventAccessDenied)

	// Admins may create on behalf of any trainer.
	_, err = env.events.CreateEvent(ctx, adminViewer(), trainer.ID, EventInput{
		Name: "Admin made",
		Date: futureDate(),
	})
	assert.NoError(t, err)
}

func TestUpdateEvent_TrainerMismatchReadsAsNotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	trainer, ownerViewer := env.seedTrainer("trainer")
	other, otherViewer := env.seedTrainer("other")

	event, err := env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{
		Name: "Session",
		Date: futureDate(),
	})
	require.NoError(t, err)

	name := "Hijacked"
	_, err = env.events.UpdateEvent(ctx, otherViewer, other.ID, event.ID, EventUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrEventNotFound)

	updated, err := env.events.UpdateEvent(ctx, ownerViewer, trainer.ID, event.ID, EventUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Hijacked", updated.Name)
}

// Deleting an event must leave no reference behind: not in the trainer's
// event set, not in any client's enrollments, not in the store.
func TestDeleteEvent_CascadeLeavesNoOrphans(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	trainer, ownerViewer := env.seedTrainer("trainer")
	first, firstViewer := env.seedClient("first")
	second, secondViewer := env.seedClient("second")

	event, err := env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{
		Name: "Doomed session",
		Date: futureDate(),
	})
	require.NoError(t, err)
	require.NoError(t, env.clients.Enroll(ctx, firstViewer, first.ID, event.ID))
	require.NoError(t, env.clients.Enroll(ctx, secondViewer, second.ID, event.ID))

	require.NoError(t, env.events.DeleteEvent(ctx, ownerViewer, trainer.ID, event.ID))

	storedTrainer, err := env.trainerRepo.GetByID(ctx, trainer.ID)
	require.NoError(t, err)
	assert.NotContains(t, storedTrainer.EventIDs, event.ID)

	for _, clientID := range []primitive.ObjectID{first.ID, second.ID} {
		storedClient, err := env.clientRepo.GetByID(ctx, clientID)
		require.NoError(t, err)
		assert.False(t, storedClient.IsEnrolled(event.ID))
	}

	_, err = env.eventRepo.GetByID(ctx, event.ID)
	assert.Error(t, err)
}

func TestDeleteEvent_OnlyOwnerOrAdmin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	trainer, ownerViewer := env.seedTrainer("trainer")

	event, err := env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{
		Name: "Session",
		Date: futureDate(),
	})
	require.NoError(t, err)

	_, clientViewer := env.seedClient("client")
	assert.ErrorIs(t, env.events.DeleteEvent(ctx, clientViewer, trainer.ID, event.ID), ErrEventAccessDenied)

	assert.NoError(t, env.events.DeleteEvent(ctx, adminViewer(), trainer.ID, event.ID))
}

func TestListEvents_VisibilityAndHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	trainer, ownerViewer := env.seedTrainer("trainer")
	invited, _ := env.seedClient("invited")

	_, err := env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{
		Name: "Public upcoming",
		Date: futureDate(),
	})
	require.NoError(t, err)
	_, err = env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{
		Name:      "Private upcoming",
		Date:      futureDate(),
		GuestList: []primitive.ObjectID{invited.ID},
	})
	require.NoError(t, err)

	past := &domain.Event{TrainerID: trainer.ID, Name: "Public past", Date: pastDate()}
	_, err = env.eventRepo.Create(ctx, past)
	require.NoError(t, err)

	// Anonymous viewers see only the public upcoming event.
	events, err := env.events.ListEvents(ctx, nil, false)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Public upcoming", events[0].Name)

	// An admin asking for history sees everything.
	events, err = env.events.ListEvents(ctx, adminViewer(), true)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestGetEvent_VisibilityEnforced(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	trainer, ownerViewer := env.seedTrainer("trainer")
	invited, invitedViewer := env.seedClient("invited")
	_, outsiderViewer := env.seedClient("outsider")

	event, err := env.events.CreateEvent(ctx, ownerViewer, trainer.ID, EventInput{
		Name:      "Private",
		Date:      futureDate(),
		GuestList: []primitive.ObjectID{invited.ID},
	})
	require.NoError(t, err)

	_, err = env.events.GetEvent(ctx, outsiderViewer, event.ID)
	assert.ErrorIs(t, err, ErrEventAccessDenied)
	_, err = env.events.GetEvent(ctx, nil, event.ID)
	assert.ErrorIs(t, err, ErrEventAccessDenied)

	got, err := env.events.GetEvent(ctx, invitedViewer, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = env.events.GetEvent(ctx, nil, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrEventNotFound)
}
