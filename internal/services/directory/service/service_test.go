package service

import (
	"context"
	"testing"

	"brigade/internal/modkit/repokit"
	perr "brigade/internal/platform/errors"
	"brigade/internal/platform/hash"
	"brigade/internal/platform/store"
	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/directory/domain"
	drepo "brigade/internal/services/directory/repo"
)

type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	return fn(fakeTx{})
}

type fakeRepo struct {
	users      map[string]domain.User
	candidates []domain.PinCandidate
	pinHashes  map[string]string
}

func (f *fakeRepo) Get(_ context.Context, orgID, userID string) (domain.User, error) {
	u, ok := f.users[userID]
	if !ok || u.OrgID != orgID {
		return domain.User{}, perr.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) List(_ context.Context, orgID string, _ domain.ListUsersInput) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.OrgID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetPinHash(_ context.Context, orgID, userID, pinHash string) error {
	u, ok := f.users[userID]
	if !ok || u.OrgID != orgID || !u.Active {
		return perr.NotFoundf("active user %s not found", userID)
	}
	if f.pinHashes == nil {
		f.pinHashes = map[string]string{}
	}
	f.pinHashes[userID] = pinHash
	return nil
}

func (f *fakeRepo) PinCandidates(context.Context, string) ([]domain.PinCandidate, error) {
	return f.candidates, nil
}

type fakeAudit struct{ entries []adomain.Entry }

func (f *fakeAudit) Record(_ context.Context, _ repokit.Queryer, e adomain.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func newFake(fr *fakeRepo, aud *fakeAudit) *Svc {
	return &Svc{
		db:     fakeTx{},
		binder: repokit.BindFunc[drepo.Repo](func(repokit.Queryer) drepo.Repo { return fr }),
		repo:   fr,
		audit:  aud,
	}
}

func TestSetPin_HashesAndAudits(t *testing.T) {
	fr := &fakeRepo{users: map[string]domain.User{
		"u-1": {ID: "u-1", OrgID: "org-1", Active: true},
	}}
	aud := &fakeAudit{}
	s := newFake(fr, aud)

	if err := s.SetPin(context.Background(), "org-1", "mgr-1", domain.SetPinInput{UserID: "u-1", Pin: "123456"}); err != nil {
		t.Fatalf("SetPin: %v", err)
	}
	stored := fr.pinHashes["u-1"]
	if stored == "" || stored == "123456" {
		t.Fatalf("pin stored raw or missing: %q", stored)
	}
	if ok, _ := hash.Verify("123456", stored); !ok {
		t.Fatal("stored hash does not verify the pin")
	}
	if len(aud.entries) != 1 || aud.entries[0].Action != adomain.ActionPinSet {
		t.Fatalf("audit = %+v", aud.entries)
	}
}

func TestSetPin_RejectsBadFormats(t *testing.T) {
	s := newFake(&fakeRepo{}, nil)
	for _, pin := range []string{"", "123", "1234567", "12a4", "12 4"} {
		err := s.SetPin(context.Background(), "org-1", "mgr", domain.SetPinInput{UserID: "u-1", Pin: pin})
		if !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("pin %q: got %v", pin, err)
		}
	}
}

func TestVerifyPin_FirstMatchInIDOrder(t *testing.T) {
	h1, _ := hash.Secret("1234")
	h2, _ := hash.Secret("1234")
	fr := &fakeRepo{candidates: []domain.PinCandidate{
		{UserID: "u-01", PinHash: h1},
		{UserID: "u-02", PinHash: h2},
	}}
	s := newFake(fr, nil)

	uid, ok, err := s.VerifyPin(context.Background(), "org-1", "1234")
	if err != nil || !ok {
		t.Fatalf("VerifyPin: ok=%v err=%v", ok, err)
	}
	if uid != "u-01" {
		t.Fatalf("expected first candidate in id order, got %s", uid)
	}
}

func TestVerifyPin_NoMatch(t *testing.T) {
	h, _ := hash.Secret("9999")
	s := newFake(&fakeRepo{candidates: []domain.PinCandidate{{UserID: "u-1", PinHash: h}}}, nil)

	_, ok, err := s.VerifyPin(context.Background(), "org-1", "1234")
	if err != nil {
		t.Fatalf("VerifyPin: %v", err)
	}
	if ok {
		t.Fatal("wrong pin should not verify")
	}
}

func TestVerifyPin_SkipsCorruptHash(t *testing.T) {
	good, _ := hash.Secret("1234")
	fr := &fakeRepo{candidates: []domain.PinCandidate{
		{UserID: "u-1", PinHash: "garbage"},
		{UserID: "u-2", PinHash: good},
	}}
	s := newFake(fr, nil)

	uid, ok, err := s.VerifyPin(context.Background(), "org-1", "1234")
	if err != nil || !ok || uid != "u-2" {
		t.Fatalf("VerifyPin: uid=%s ok=%v err=%v", uid, ok, err)
	}
}

func TestGet_CrossOrgHidden(t *testing.T) {
	fr := &fakeRepo{users: map[string]domain.User{
		"u-1": {ID: "u-1", OrgID: "org-a"},
	}}
	s := newFake(fr, nil)

	if _, err := s.Get(context.Background(), "org-b", "u-1"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("cross-org get: %v", err)
	}
}
