package stash

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// CheckStorageKeyPrefix prefixes the throwaway key written by CheckStorage.
const CheckStorageKeyPrefix = "check_storage_key_"

// CheckStorage exercises every data operation of a against a throwaway
// key: set, has, get, get extra, overwrite and set extra. The key is
// removed afterwards on a best-effort basis and a cleanup failure is never
// reported. The first failing step is returned. A Disconnect failure is
// reported too, combined with the step failure when both happen.
func CheckStorage(ctx context.Context, a Adapter) (err error) {
	key := CheckStorageKeyPrefix + uuid.NewString()

	if err := a.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, a.Disconnect(context.WithoutCancel(ctx)))
	}()
	defer func() {
		_, _ = a.RemoveItem(context.WithoutCancel(ctx), key)
	}()

	return checkSequence(ctx, a, key)
}

func checkSequence(ctx context.Context, s Storage, key Key) error {
	if _, err := s.SetItem(ctx, key, "value", Extra{"extra": "value"}); err != nil {
		return err
	}
	if _, err := s.HasItem(ctx, key); err != nil {
		return err
	}
	if _, err := s.GetItem(ctx, key); err != nil {
		return err
	}
	if _, err := s.GetExtra(ctx, key); err != nil {
		return err
	}
	if _, err := s.SetItem(ctx, key, "new value", Extra{"extra": "new value"}); err != nil {
		return err
	}
	if _, err := s.SetExtra(ctx, key, Extra{"extra": "newer value"}); err != nil {
		return err
	}
	return nil
}
