package service

import (
	"adiestra/events-app/internal/domain"
	"adiestra/events-app/internal/repository"
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories backing the service tests. Each fake guards its
// state with a mutex and gives the conditional writes the same atomicity
// the Mongo layer provides, so the concurrency tests exercise the real
// commit semantics.

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	id := primitive.NewObjectID()
	stored := *user
	stored.ID = id
	r.users[id] = &stored
	return id, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = ""
	u.ResetTokenExpiry = nil
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// --- trainers ---

type fakeTrainerRepo struct {
	mu       sync.Mutex
	trainers map[primitive.ObjectID]*domain.Trainer
}

func newFakeTrainerRepo() *fakeTrainerRepo {
	return &fakeTrainerRepo{trainers: make(map[primitive.ObjectID]*domain.Trainer)}
}

func copyTrainer(t *domain.Trainer) *domain.Trainer {
	copied := *t
	copied.EventIDs = append([]primitive.ObjectID(nil), t.EventIDs...)
	copied.Ratings = append([]domain.Rating(nil), t.Ratings...)
	return &copied
}

func (r *fakeTrainerRepo) Create(ctx context.Context, trainer *domain.Trainer) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trainers {
		if t.UserID == trainer.UserID {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	id := primitive.NewObjectID()
	stored := copyTrainer(trainer)
	stored.ID = id
	r.trainers[id] = stored
	return id, nil
}

func (r *fakeTrainerRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trainers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTrainer(t), nil
}

func (r *fakeTrainerRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trainers {
		if t.UserID == userID {
			return copyTrainer(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTrainerRepo) GetAll(ctx context.Context) ([]domain.Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.Trainer, 0, len(r.trainers))
	for _, t := range r.trainers {
		all = append(all, *copyTrainer(t))
	}
	return all, nil
}

func (r *fakeTrainerRepo) Update(ctx context.Context, trainer *domain.Trainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.trainers[trainer.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = trainer.Name
	stored.Bio = trainer.Bio
	stored.ImageKey = trainer.ImageKey
	return nil
}

func (r *fakeTrainerRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trainers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.trainers, id)
	return nil
}

func (r *fakeTrainerRepo) AddEventID(ctx context.Context, trainerID, eventID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trainers[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range t.EventIDs {
		if id == eventID {
			return nil
		}
	}
	t.EventIDs = append(t.EventIDs, eventID)
	return nil
}

func (r *fakeTrainerRepo) RemoveEventID(ctx context.Context, trainerID, eventID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trainers[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := t.EventIDs[:0]
	for _, id := range t.EventIDs {
		if id != eventID {
			kept = append(kept, id)
		}
	}
	t.EventIDs = kept
	return nil
}

func (r *fakeTrainerRepo) SetRating(ctx context.Context, trainerID, clientID primitive.ObjectID, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trainers[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range t.Ratings {
		if t.Ratings[i].ClientID == clientID {
			t.Ratings[i].Score = score
			return nil
		}
	}
	t.Ratings = append(t.Ratings, domain.Rating{ClientID: clientID, Score: score})
	return nil
}

// --- clients ---

type fakeClientRepo struct {
	mu      sync.Mutex
	clients map[primitive.ObjectID]*domain.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[primitive.ObjectID]*domain.Client)}
}

func copyClient(c *domain.Client) *domain.Client {
	copied := *c
	copied.EnrolledEventIDs = append([]primitive.ObjectID(nil), c.EnrolledEventIDs...)
	return &copied
}

func (r *fakeClientRepo) Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.UserID == client.UserID {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	id := primitive.NewObjectID()
	stored := copyClient(client)
	stored.ID = id
	r.clients[id] = stored
	return id, nil
}

func (r *fakeClientRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyClient(c), nil
}

func (r *fakeClientRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.UserID == userID {
			return copyClient(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeClientRepo) GetAll(ctx context.Context) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		all = append(all, *copyClient(c))
	}
	return all, nil
}

func (r *fakeClientRepo) Update(ctx context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.clients[client.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = client.Name
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *fakeClientRepo) AddEnrolledEvent(ctx context.Context, clientID, eventID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range c.EnrolledEventIDs {
		if id == eventID {
			return nil
		}
	}
	c.EnrolledEventIDs = append(c.EnrolledEventIDs, eventID)
	return nil
}

func (r *fakeClientRepo) RemoveEnrolledEvent(ctx context.Context, clientID, eventID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := c.EnrolledEventIDs[:0]
	for _, id := range c.EnrolledEventIDs {
		if id != eventID {
			kept = append(kept, id)
		}
	}
	c.EnrolledEventIDs = kept
	return nil
}

func (r *fakeClientRepo) RemoveEventFromAll(ctx context.Context, eventID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		kept := c.EnrolledEventIDs[:0]
		for _, id := range c.EnrolledEventIDs {
			if id != eventID {
				kept = append(kept, id)
			}
		}
		c.EnrolledEventIDs = kept
	}
	return nil
}

func (r *fakeClientRepo) FindByEnrolledEvents(ctx context.Context, eventIDs []primitive.ObjectID) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[primitive.ObjectID]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		wanted[id] = struct{}{}
	}
	var matched []domain.Client
	for _, c := range r.clients {
		for _, id := range c.EnrolledEventIDs {
			if _, ok := wanted[id]; ok {
				matched = append(matched, *copyClient(c))
				break
			}
		}
	}
	return matched, nil
}

// --- events ---

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]*domain.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[primitive.ObjectID]*domain.Event)}
}

func copyEvent(e *domain.Event) *domain.Event {
	copied := *e
	copied.GuestList = append([]primitive.ObjectID(nil), e.GuestList...)
	copied.Attendees = append([]primitive.ObjectID(nil), e.Attendees...)
	if e.Capacity != nil {
		capacity := *e.Capacity
		copied.Capacity = &capacity
	}
	return &copied
}

func (r *fakeEventRepo) Create(ctx context.Context, event *domain.Event) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.Capacity != nil && *event.Capacity <= 0 {
		return primitive.NilObjectID, fmt.Errorf("invalid capacity %d", *event.Capacity)
	}
	id := primitive.NewObjectID()
	stored := copyEvent(event)
	stored.ID = id
	r.events[id] = stored
	return id, nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyEvent(e), nil
}

func (r *fakeEventRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []domain.Event
	for _, id := range ids {
		if e, ok := r.events[id]; ok {
			found = append(found, *copyEvent(e))
		}
	}
	return found, nil
}

func (r *fakeEventRepo) GetAll(ctx context.Context) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		all = append(all, *copyEvent(e))
	}
	return all, nil
}

func (r *fakeEventRepo) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var owned []domain.Event
	for _, e := range r.events {
		if e.TrainerID == trainerID {
			owned = append(owned, *copyEvent(e))
		}
	}
	return owned, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[event.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = event.Name
	stored.Description = event.Description
	stored.Date = event.Date
	stored.Capacity = event.Capacity
	stored.ImageKey = event.ImageKey
	stored.GuestList = append([]primitive.ObjectID(nil), event.GuestList...)
	return nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	return nil
}

// AddAttendee mirrors the conditional single-document commit of the Mongo
// implementation: the duplicate and capacity checks happen under the same
// lock as the append.
func (r *fakeEventRepo) AddAttendee(ctx context.Context, eventID, clientID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return repository.ErrPreconditionFailed
	}
	for _, id := range e.Attendees {
		if id == clientID {
			return repository.ErrPreconditionFailed
		}
	}
	if e.Capacity != nil && len(e.Attendees) >= *e.Capacity {
		return repository.ErrPreconditionFailed
	}
	e.Attendees = append(e.Attendees, clientID)
	return nil
}

func (r *fakeEventRepo) RemoveAttendee(ctx context.Context, eventID, clientID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := e.Attendees[:0]
	for _, id := range e.Attendees {
		if id != clientID {
			kept = append(kept, id)
		}
	}
	e.Attendees = kept
	return nil
}

// --- profiles ---

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[primitive.ObjectID]*domain.Profile)}
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *domain.Profile) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.TrainerID]; ok {
		return primitive.NilObjectID, repository.ErrDuplicateKey
	}
	id := primitive.NewObjectID()
	stored := *profile
	stored.ID = id
	r.profiles[profile.TrainerID] = &stored
	return id, nil
}

func (r *fakeProfileRepo) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[trainerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.profiles[profile.TrainerID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Price = profile.Price
	stored.Contact = profile.Contact
	return nil
}

func (r *fakeProfileRepo) DeleteByTrainerID(ctx context.Context, trainerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, trainerID)
	return nil
}

// --- storage / mail ---

type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	return "https://storage.test/upload/" + key, nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.test/download/" + key, nil
}

func (fakeFileStorage) DeleteObject(ctx context.Context, key string) error {
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, to, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

// testEnv bundles the fakes with fully wired services.
type testEnv struct {
	userRepo    *fakeUserRepo
	trainerRepo *fakeTrainerRepo
	clientRepo  *fakeClientRepo
	eventRepo   *fakeEventRepo
	profileRepo *fakeProfileRepo
	mailer      *fakeMailer

	auth     AuthService
	trainers TrainerService
	clients  ClientService
	events   EventService
	profiles ProfileService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		userRepo:    newFakeUserRepo(),
		trainerRepo: newFakeTrainerRepo(),
		clientRepo:  newFakeClientRepo(),
		eventRepo:   newFakeEventRepo(),
		profileRepo: newFakeProfileRepo(),
		mailer:      &fakeMailer{},
	}
	env.auth = NewAuthService(env.userRepo, env.trainerRepo, env.clientRepo, env.mailer, "test-secret", time.Hour)
	env.trainers = NewTrainerService(env.trainerRepo, env.userRepo, env.clientRepo, env.eventRepo, env.profileRepo, fakeFileStorage{})
	env.clients = NewClientService(env.clientRepo, env.userRepo, env.eventRepo)
	env.events = NewEventService(env.eventRepo, env.trainerRepo, env.clientRepo, fakeFileStorage{})
	env.profiles = NewProfileService(env.profileRepo, env.trainerRepo)
	return env
}

// seedTrainer creates a trainer-role user plus its trainer record and
// returns the trainer with an owner viewer.
func (env *testEnv) seedTrainer(name string) (*domain.Trainer, *Viewer) {
	userID, err := env.userRepo.Create(context.Background(), &domain.User{
		Email: name + "@test.local",
		Role:  domain.RoleTrainer,
	})
	if err != nil {
		panic(err)
	}
	trainer, err := env.trainers.CreateTrainer(context.Background(), TrainerInput{UserID: userID, Name: name})
	if err != nil {
		panic(err)
	}
	viewer := &Viewer{UserID: userID, Role: domain.RoleTrainer, TrainerID: trainer.ID}
	return trainer, viewer
}

// seedClient creates a client-role user plus its client record and returns
// the client with an owner viewer.
func (env *testEnv) seedClient(name string) (*domain.Client, *Viewer) {
	userID, err := env.userRepo.Create(context.Background(), &domain.User{
		Email: name + "@test.local",
		Role:  domain.RoleClient,
	})
	if err != nil {
		panic(err)
	}
	client, err := env.clients.CreateClient(context.Background(), ClientInput{UserID: userID, Name: name})
	if err != nil {
		panic(err)
	}
	viewer := &Viewer{UserID: userID, Role: domain.RoleClient, ClientID: client.ID}
	return client, viewer
}

func adminViewer() *Viewer {
	return &Viewer{UserID: primitive.NewObjectID(), Role: domain.RoleAdmin}
}

func intPtr(v int) *int { return &v }
