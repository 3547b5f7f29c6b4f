package service

import (
	"adiestra/events-app/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanView_Matrix(t *testing.T) {
	now := time.Now().UTC()
	ownerID := primitive.NewObjectID()
	otherTrainerID := primitive.NewObjectID()
	invitedID := primitive.NewObjectID()
	outsiderID := primitive.NewObjectID()

	publicUpcoming := &domain.Event{TrainerID: ownerID, Date: now.Add(time.Hour)}
	publicPast := &domain.Event{TrainerID: ownerID, Date: now.Add(-time.Hour)}
	privateUpcoming := &domain.Event{
		TrainerID: ownerID,
		Date:      now.Add(time.Hour),
		GuestList: []primitive.ObjectID{invitedID},
	}

	anon := (*Viewer)(nil)
	admin := &Viewer{Role: domain.RoleAdmin}
	owner := &Viewer{Role: domain.RoleTrainer, TrainerID: ownerID}
	otherTrainer := &Viewer{Role: domain.RoleTrainer, TrainerID: otherTrainerID}
	invited := &Viewer{Role: domain.RoleClient, ClientID: invitedID}
	outsider := &Viewer{Role: domain.RoleClient, ClientID: outsiderID}

	cases := []struct {
		name   string
		viewer *Viewer
		event  *domain.Event
		want   bool
	}{
		{"anon sees public upcoming", anon, publicUpcoming, true},
		{"anon blind to past", anon, publicPast, false},
		{"anon blind to private", anon, privateUpcoming, false},
		{"admin sees private", admin, privateUpcoming, true},
		{"admin sees past", admin, publicPast, true},
		{"owner sees own private", owner, privateUpcoming, true},
		{"owner sees own past", owner, publicPast, true},
		{"other trainer sees public", otherTrainer, publicUpcoming, true},
		{"other trainer blind to private", otherTrainer, privateUpcoming, false},
		{"invited client sees private", invited, privateUpcoming, true},
		{"outsider client blind to private", outsider, privateUpcoming, false},
		{"outsider client sees public", outsider, publicUpcoming, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanView(tc.viewer, tc.event, now))
		})
	}
}

func TestVisibleEvents_HistoryFiltering(t *testing.T) {
	now := time.Now().UTC()
	ownerID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()

	attendedPast := domain.Event{
		TrainerID: ownerID,
		Name:      "attended past",
		Date:      now.Add(-time.Hour),
		Attendees: []primitive.ObjectID{clientID},
	}
	strangerPast := domain.Event{
		TrainerID: primitive.NewObjectID(),
		Name:      "stranger past",
		Date:      now.Add(-time.Hour),
	}
	upcoming := domain.Event{TrainerID: ownerID, Name: "upcoming", Date: now.Add(time.Hour)}
	events := []domain.Event{attendedPast, strangerPast, upcoming}

	client := &Viewer{Role: domain.RoleClient, ClientID: clientID}

	names := func(events []domain.Event) []string {
		out := make([]string, len(events))
		for i := range events {
			out[i] = events[i].Name
		}
		return out
	}

	// Without history a client sees upcoming events plus the past ones they
	// actually attended.
	visible := VisibleEvents(client, events, now, false)
	assert.ElementsMatch(t, []string{"attended past", "upcoming"}, names(visible))

	// With history every visible past event stays listed.
	visible = VisibleEvents(client, events, now, true)
	assert.ElementsMatch(t, []string{"attended past", "stranger past", "upcoming"}, names(visible))

	// An anonymous viewer only ever sees the upcoming public subset.
	visible = VisibleEvents(nil, events, now, true)
	assert.ElementsMatch(t, []string{"upcoming"}, names(visible))
}

func TestViewerResolver_MissingEntityRecord(t *testing.T) {
	env := newTestEnv()
	resolver := NewViewerResolver(env.trainerRepo, env.clientRepo)

	// A trainer user without a trainer record resolves to a viewer with a
	// nil entity id rather than an error.
	viewer, err := resolver.Resolve(context.Background(), primitive.NewObjectID(), domain.RoleTrainer)
	assert.NoError(t, err)
	assert.Equal(t, primitive.NilObjectID, viewer.TrainerID)

	trainer, _ := env.seedTrainer("trainer")
	viewer, err = resolver.Resolve(context.Background(), trainer.UserID, domain.RoleTrainer)
	assert.NoError(t, err)
	assert.Equal(t, trainer.ID, viewer.TrainerID)
}
