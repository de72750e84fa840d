package db

import (
	"context"
	"log/slog"

	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
	"github.com/quarry-platform/quarry-dashboard/internal/models"
)

const credentialsPrefix string = "credentials"

// GetCredentials reads a credential pair from Redis, decrypting if necessary.
func (r RedisAdapter) GetCredentials(ctx context.Context, setID string) (models.CredentialPair, error) {
	output := models.CredentialPair{}
	raw, err := r.rdb.HGetAll(
		ctx,
		r.credentialsKey(setID),
	).Result()
	if err != nil {
		return output, err
	}

	err = r.deserializeToStruct(raw, &output)
	if err != nil {
		if err == dasherrors.ErrMissingDBResource {
			err = dasherrors.ErrCredentialsNotFound
		}
		return models.CredentialPair{}, err
	}

	decPair, err := output.SetEncryptor(r.encryptor).Decrypt()
	if err != nil {
		return models.CredentialPair{}, err
	}
	return decPair, nil
}

// SetCredentials writes a credential pair to Redis. The pair lands in a single
// hash with a single HSET call so both values become durable together.
func (r RedisAdapter) SetCredentials(ctx context.Context, pair models.CredentialPair) error {
	encPair, err := pair.SetEncryptor(r.encryptor).Encrypt()
	if err != nil {
		return err
	}

	slog.Debug(
		"CREDENTIAL DB",
		"message",
		"saving credential pair",
		"credentials",
		pair,
	)

	return r.rdb.HSet(
		ctx,
		r.credentialsKey(pair.ID),
		r.serializeStruct(encPair)...,
	).Err()
}

// RemoveCredentials deletes a credential pair from Redis. Both values disappear
// together because they live in one hash. Removing an absent pair is not an error.
func (r RedisAdapter) RemoveCredentials(ctx context.Context, setID string) error {
	return r.rdb.Del(
		ctx,
		r.credentialsKey(setID),
	).Err()
}

func (RedisAdapter) credentialsKey(setID string) string {
	return credentialsPrefix + ":" + setID
}
