package authoring

import (
	"bytes"
	"context"

	"github.com/tasknest/tasknest/pkg/cerr"
	"github.com/tasknest/tasknest/pkg/storage"
)

const modePath = "preferences/authoring_mode"

// StorageModeStore keeps the mode preference as a single file next to the
// rest of the data, so the preference survives restarts the same way the
// records do.
type StorageModeStore struct {
	storage storage.Storage
}

func NewStorageModeStore(s storage.Storage) *StorageModeStore {
	return &StorageModeStore{storage: s}
}

func (s *StorageModeStore) Load(ctx context.Context) (Mode, error) {
	exists, err := s.storage.Exists(ctx, modePath)
	if err != nil {
		return "", cerr.WrapStorageReadError("authoring mode", err)
	}
	if !exists {
		return ModeManual, nil
	}
	data, err := s.storage.Read(ctx, modePath)
	if err != nil {
		return "", cerr.WrapStorageReadError("authoring mode", err)
	}
	mode := Mode(bytes.TrimSpace(data))
	if !mode.Valid() {
		return ModeManual, nil
	}
	return mode, nil
}

func (s *StorageModeStore) Save(ctx context.Context, mode Mode) error {
	if err := s.storage.Write(ctx, modePath, []byte(mode)); err != nil {
		return cerr.WrapStorageWriteError("authoring mode", err)
	}
	return nil
}
