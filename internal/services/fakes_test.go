package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"donation_backend/internal/models"
	"donation_backend/internal/repositories"
	"donation_backend/internal/workers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ---------------- transactor ----------------

type fakeTransactor struct{}

func (fakeTransactor) DB(ctx context.Context) *gorm.DB { return nil }

func (fakeTransactor) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// ---------------- in-memory store ----------------

type memStore struct {
	mu            sync.Mutex
	users         map[string]models.User
	orgs          map[string]models.Organization
	donors        map[string]models.Donor
	offers        map[string]models.DonationOffer
	requests      map[string]models.DonationRequest
	contributions map[string]models.Contribution
	payments      map[string]models.Payment
	notifications map[string]models.Notification
	history       []models.BlockHistory
	// журнал блокировок и выборок слотов в порядке вызова
	locks []string
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]models.User{},
		orgs:          map[string]models.Organization{},
		donors:        map[string]models.Donor{},
		offers:        map[string]models.DonationOffer{},
		requests:      map[string]models.DonationRequest{},
		contributions: map[string]models.Contribution{},
		payments:      map[string]models.Payment{},
		notifications: map[string]models.Notification{},
	}
}

func (s *memStore) record(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, entry)
}

func (s *memStore) lockLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.locks...)
}

func ensureID(m *models.BaseModel) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.UpdatedAt = time.Now()
}

// ---------------- users ----------------

type memUsers struct{ s *memStore }

func (r memUsers) Create(db *gorm.DB, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&user.BaseModel)
	r.s.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(db *gorm.DB, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r memUsers) FindActiveAdminIDs(db *gorm.DB) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, u := range r.s.users {
		if u.Role == models.RoleAdmin && u.Status == models.UserStatusActive {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ---------------- organizations / donors ----------------

type memOrganizations struct{ s *memStore }

func (r memOrganizations) FindByID(db *gorm.DB, id string) (*models.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orgs[id]
	if !ok {
		return nil, repositories.ErrOrganizationNotFound
	}
	return &o, nil
}

func (r memOrganizations) FindByIDForUpdate(db *gorm.DB, id string) (*models.Organization, error) {
	r.s.record("organization")
	return r.FindByID(db, id)
}

func (r memOrganizations) FindByUserID(db *gorm.DB, userID string) (*models.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orgs {
		if o.UserID == userID {
			o := o
			return &o, nil
		}
	}
	return nil, repositories.ErrOrganizationNotFound
}

func (r memOrganizations) Update(db *gorm.DB, org *models.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orgs[org.ID] = *org
	return nil
}

func (r memOrganizations) List(db *gorm.DB, status models.VerificationStatus, page repositories.Pagination) ([]models.Organization, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Organization
	for _, o := range r.s.orgs {
		if status == "" || o.VerificationStatus == status {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r memOrganizations) CreateBlockHistory(db *gorm.DB, entry *models.BlockHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&entry.BaseModel)
	r.s.history = append(r.s.history, *entry)
	return nil
}

type memDonors struct{ s *memStore }

func (r memDonors) FindByID(db *gorm.DB, id string) (*models.Donor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.donors[id]
	if !ok {
		return nil, repositories.ErrDonorNotFound
	}
	return &d, nil
}

func (r memDonors) FindByIDForUpdate(db *gorm.DB, id string) (*models.Donor, error) {
	r.s.record("donor")
	return r.FindByID(db, id)
}

func (r memDonors) FindByUserID(db *gorm.DB, userID string) (*models.Donor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.donors {
		if d.UserID == userID {
			d := d
			return &d, nil
		}
	}
	return nil, repositories.ErrDonorNotFound
}

func (r memDonors) Update(db *gorm.DB, donor *models.Donor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.donors[donor.ID] = *donor
	return nil
}

// ---------------- donations ----------------

type memDonations struct{ s *memStore }

func (r memDonations) CreateOffer(db *gorm.DB, offer *models.DonationOffer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&offer.BaseModel)
	r.s.offers[offer.ID] = *offer
	return nil
}

func (r memDonations) FindOfferByID(db *gorm.DB, id string) (*models.DonationOffer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.offers[id]
	if !ok {
		return nil, repositories.ErrOfferNotFound
	}
	return &o, nil
}

func (r memDonations) FindOfferByIDForUpdate(db *gorm.DB, id string) (*models.DonationOffer, error) {
	r.s.record("offer")
	return r.FindOfferByID(db, id)
}

func (r memDonations) UpdateOffer(db *gorm.DB, offer *models.DonationOffer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.offers[offer.ID] = *offer
	return nil
}

func (r memDonations) PromoteOffer(db *gorm.DB, offerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.offers[offerID]
	if !ok || o.Status != models.OfferStatusPending {
		return false, nil
	}
	o.Status = models.OfferStatusConfirmed
	r.s.offers[offerID] = o
	return true, nil
}

func (r memDonations) ListOffers(db *gorm.DB, criteria repositories.DonationCriteria) ([]models.DonationOffer, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.DonationOffer
	for _, o := range r.s.offers {
		if criteria.OrganizationID != "" && o.OrganizationID != criteria.OrganizationID {
			continue
		}
		if criteria.Status != "" && string(o.Status) != criteria.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r memDonations) CreateRequest(db *gorm.DB, request *models.DonationRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&request.BaseModel)
	r.s.requests[request.ID] = *request
	return nil
}

func (r memDonations) FindRequestByID(db *gorm.DB, id string) (*models.DonationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repositories.ErrRequestNotFound
	}
	return &req, nil
}

func (r memDonations) FindRequestByIDForUpdate(db *gorm.DB, id string) (*models.DonationRequest, error) {
	return r.FindRequestByID(db, id)
}

func (r memDonations) UpdateRequest(db *gorm.DB, request *models.DonationRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.requests[request.ID] = *request
	return nil
}

func (r memDonations) ListRequests(db *gorm.DB, criteria repositories.DonationCriteria) ([]models.DonationRequest, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.DonationRequest
	for _, req := range r.s.requests {
		if criteria.Status != "" && string(req.Status) != criteria.Status {
			continue
		}
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

// ---------------- contributions / payments ----------------

func sameParent(donorID string, parent models.ParentRef, gotDonor string, offerID, requestID *string) bool {
	if gotDonor != donorID {
		return false
	}
	if parent.Kind == models.ParentRequest {
		return requestID != nil && *requestID == parent.ID
	}
	return offerID != nil && *offerID == parent.ID
}

type memContributions struct{ s *memStore }

func (r memContributions) Create(db *gorm.DB, c *models.Contribution) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// уникальные индексы (donor_id, offer_id) / (donor_id, request_id)
	for _, existing := range r.s.contributions {
		if sameParent(c.DonorID, c.Parent(), existing.DonorID, existing.OfferID, existing.RequestID) {
			return repositories.ErrDuplicate
		}
	}
	ensureID(&c.BaseModel)
	stored := *c
	stored.Payment = nil
	r.s.contributions[c.ID] = stored
	return nil
}

func (r memContributions) FindByID(db *gorm.DB, id string) (*models.Contribution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contributions[id]
	if !ok {
		return nil, repositories.ErrContributionNotFound
	}
	for _, p := range r.s.payments {
		if p.ContributionID == id {
			p := p
			c.Payment = &p
		}
	}
	return &c, nil
}

func (r memContributions) FindByIDForUpdate(db *gorm.DB, id string) (*models.Contribution, error) {
	return r.FindByID(db, id)
}

func (r memContributions) Update(db *gorm.DB, c *models.Contribution) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *c
	stored.Payment = nil
	r.s.contributions[c.ID] = stored
	return nil
}

func (r memContributions) ExistsForDonor(db *gorm.DB, donorID string, parent models.ParentRef) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contributions {
		if sameParent(donorID, parent, c.DonorID, c.OfferID, c.RequestID) {
			return true, nil
		}
	}
	return false, nil
}

func (r memContributions) FindScheduledPickups(db *gorm.DB, filter repositories.PickupWindowFilter) ([]models.Contribution, error) {
	r.s.record("pickups")
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Contribution
	for _, c := range r.s.contributions {
		if c.PickupStatus != models.PickupStatusScheduled || c.PickupTime == nil {
			continue
		}
		if filter.OrganizationID != "" && c.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.DonorID != "" && c.DonorID != filter.DonorID {
			continue
		}
		if filter.ExcludeID != "" && c.ID == filter.ExcludeID {
			continue
		}
		active := false
		for _, st := range filter.Statuses {
			if c.Status == st {
				active = true
			}
		}
		if !active || c.PickupTime.Before(filter.From) || c.PickupTime.After(filter.To) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r memContributions) List(db *gorm.DB, criteria repositories.ContributionCriteria) ([]models.Contribution, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Contribution
	for _, c := range r.s.contributions {
		if criteria.DonorID != "" && c.DonorID != criteria.DonorID {
			continue
		}
		if criteria.OrganizationID != "" && c.OrganizationID != criteria.OrganizationID {
			continue
		}
		if criteria.Status != "" && string(c.Status) != criteria.Status {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Create(db *gorm.DB, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if sameParent(p.DonorID, paymentParent(p), existing.DonorID, existing.OfferID, existing.RequestID) {
			return repositories.ErrDuplicate
		}
	}
	ensureID(&p.BaseModel)
	r.s.payments[p.ID] = *p
	return nil
}

func paymentParent(p *models.Payment) models.ParentRef {
	if p.RequestID != nil {
		return models.ParentRef{Kind: models.ParentRequest, ID: *p.RequestID}
	}
	return models.ParentRef{Kind: models.ParentOffer, ID: *p.OfferID}
}

func (r memPayments) FindByID(db *gorm.DB, id string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	return &p, nil
}

func (r memPayments) FindByIDForUpdate(db *gorm.DB, id string) (*models.Payment, error) {
	return r.FindByID(db, id)
}

func (r memPayments) Update(db *gorm.DB, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) ExistsForDonor(db *gorm.DB, donorID string, parent models.ParentRef) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if sameParent(donorID, parent, p.DonorID, p.OfferID, p.RequestID) {
			return true, nil
		}
	}
	return false, nil
}

// ---------------- notifications ----------------

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(db *gorm.DB, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&n.BaseModel)
	r.s.notifications[n.ID] = *n
	return nil
}

func (r memNotifications) FindByIDForUser(db *gorm.DB, id, userID string) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, repositories.ErrNotificationNotFound
	}
	return &n, nil
}

func (r memNotifications) FindUserNotifications(db *gorm.DB, userID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (criteria.UnreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (r memNotifications) MarkAsRead(db *gorm.DB, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return repositories.ErrNotificationNotFound
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	r.s.notifications[id] = n
	return nil
}

func (r memNotifications) MarkAllAsRead(db *gorm.DB, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			r.s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (r memNotifications) Delete(db *gorm.DB, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return repositories.ErrNotificationNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

func (r memNotifications) GetUnreadCount(db *gorm.DB, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ---------------- dispatcher ----------------

type recordingDispatcher struct {
	mu    sync.Mutex
	tasks []workers.NotificationTask
}

func (d *recordingDispatcher) Dispatch(task workers.NotificationTask) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
}

func (d *recordingDispatcher) types() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.tasks))
	for _, t := range d.tasks {
		out = append(out, t.Type)
	}
	return out
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = nil
}

// ---------------- fixture ----------------

var fixtureNow = time.Date(2029, 12, 31, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memStore
	dispatcher *recordingDispatcher
	services   *ServiceContainer

	admin  models.Actor
	org    models.Actor
	donor1 models.Actor
	donor2 models.Actor

	otherOrg models.Actor

	offerID      string
	offer2ID     string
	requestID    string
	fundsOfferID string
	bareFundsID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	dispatcher := &recordingDispatcher{}
	services := NewServiceContainer(Dependencies{
		Transactor:    fakeTransactor{},
		Users:         memUsers{store},
		Organizations: memOrganizations{store},
		Donors:        memDonors{store},
		Donations:     memDonations{store},
		Contributions: memContributions{store},
		Payments:      memPayments{store},
		Notifications: memNotifications{store},
		Dispatcher:    dispatcher,
	})

	clock := func() time.Time { return fixtureNow }
	services.LifecycleService.(*lifecycleService).now = clock
	services.VerificationService.(*verificationService).now = clock

	f := &fixture{store: store, dispatcher: dispatcher, services: services}

	users := memUsers{store}
	newUser := func(email string, role models.ActorRole) string {
		u := &models.User{Email: email, PasswordHash: "x", Role: role, Status: models.UserStatusActive}
		require.NoError(t, users.Create(nil, u))
		return u.ID
	}

	adminUser := newUser("admin@example.com", models.RoleAdmin)
	f.admin = models.Actor{ID: adminUser, UserID: adminUser, Role: models.RoleAdmin}

	addOrg := func(email string) models.Actor {
		userID := newUser(email, models.RoleOrganization)
		org := models.Organization{UserID: userID, Name: "Food Bank", ContactEmail: email, VerificationStatus: models.VerificationVerified}
		ensureID(&org.BaseModel)
		store.orgs[org.ID] = org
		return models.Actor{ID: org.ID, UserID: userID, Role: models.RoleOrganization}
	}
	f.org = addOrg("org@example.com")
	f.otherOrg = addOrg("other@example.com")

	addDonor := func(email string) models.Actor {
		userID := newUser(email, models.RoleDonor)
		donor := models.Donor{UserID: userID, Name: email, Email: email}
		ensureID(&donor.BaseModel)
		store.donors[donor.ID] = donor
		return models.Actor{ID: donor.ID, UserID: userID, Role: models.RoleDonor}
	}
	f.donor1 = addDonor("d1@example.com")
	f.donor2 = addDonor("d2@example.com")

	donations := memDonations{store}
	physical := models.DonationDetails{Title: "Winter coats", Category: models.CategoryClothes, Quantity: 50, PickupLocation: "Main st. 1"}
	addOffer := func(details models.DonationDetails) string {
		offer := &models.DonationOffer{OrganizationID: f.org.ID, DonationDetails: details, Status: models.OfferStatusPending}
		require.NoError(t, donations.CreateOffer(nil, offer))
		return offer.ID
	}
	f.offerID = addOffer(physical)
	f.offer2ID = addOffer(physical)
	f.fundsOfferID = addOffer(models.DonationDetails{Title: "Shelter fund", Category: models.CategoryFunds, BankName: "Bank", AccountNumber: "123"})
	f.bareFundsID = addOffer(models.DonationDetails{Title: "No details", Category: models.CategoryFunds})

	request := &models.DonationRequest{OrganizationID: f.org.ID, DonationDetails: physical, Status: models.RequestStatusActive}
	require.NoError(t, donations.CreateRequest(nil, request))
	f.requestID = request.ID

	return f
}

func at(hour, minute int) *time.Time {
	t := time.Date(2030, 1, 1, hour, minute, 0, 0, time.UTC)
	return &t
}

func offerRef(id string) models.ParentRef   { return models.ParentRef{Kind: models.ParentOffer, ID: id} }
func requestRef(id string) models.ParentRef { return models.ParentRef{Kind: models.ParentRequest, ID: id} }
