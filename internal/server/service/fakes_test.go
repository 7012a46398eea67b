package service

import (
	"context"
	"errors"
	"io"
	"sync"

	"vertex/internal/server/database"

	"github.com/google/uuid"
)

// In-memory fakes standing in for the postgres repositories and the blob
// store, so service behavior is testable without external processes.

type fakeUserStore struct {
	mu    sync.Mutex
	users []*database.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{}
}

func (f *fakeUserStore) Create(_ context.Context, user *database.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *user
	f.users = append(f.users, &u)
	return nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*database.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (f *fakeUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeFileStore struct {
	mu        sync.Mutex
	files     []*database.File
	createErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{}
}

func (f *fakeFileStore) Create(_ context.Context, file *database.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *file
	f.files = append(f.files, &c)
	return nil
}

func (f *fakeFileStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*database.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*database.File
	for _, file := range f.files {
		if file.OwnerID == ownerID {
			c := *file
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeFileStore) GetByOwner(_ context.Context, ownerID, fileID uuid.UUID) (*database.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.OwnerID == ownerID && file.ID == fileID {
			c := *file
			return &c, nil
		}
	}
	return nil, database.ErrFileNotFound
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Save(_ context.Context, key string, data io.Reader, _ int64, _ string) (int64, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = b
	return int64(len(b)), nil
}

func (f *fakeBlobStore) URL(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[key]; !ok {
		return "", errors.New("blob not found")
	}
	return "http://blobs.local/" + key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

func (f *fakeBlobStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}
