package models

import (
	"fmt"
	"time"
)

// CredentialPair holds the access and renewal credentials used to call the
// analytics backend. The two values are always stored and cleared together,
// never one at a time.
type CredentialPair struct {
	ID        string
	Access    string
	Renewal   string
	CreatedAt time.Time
	encryptor Encryptor
}

// SetEncryptor adds encryption capabilities to the credential pair
func (c CredentialPair) SetEncryptor(enc Encryptor) CredentialPair {
	output := c
	output.encryptor = enc
	return output
}

// Encrypt encrypts both credential values if an encryptor is set
func (c CredentialPair) Encrypt() (CredentialPair, error) {
	if c.encryptor == nil {
		return c, nil
	}
	encAccess, err := c.encryptor.Encrypt(c.Access)
	if err != nil {
		return CredentialPair{}, err
	}
	encRenewal, err := c.encryptor.Encrypt(c.Renewal)
	if err != nil {
		return CredentialPair{}, err
	}
	output := c
	output.Access = encAccess
	output.Renewal = encRenewal
	return output, nil
}

// Decrypt decrypts both credential values if an encryptor is set
func (c CredentialPair) Decrypt() (CredentialPair, error) {
	if c.encryptor == nil {
		return c, nil
	}
	decAccess, err := c.encryptor.Decrypt(c.Access)
	if err != nil {
		return CredentialPair{}, err
	}
	decRenewal, err := c.encryptor.Decrypt(c.Renewal)
	if err != nil {
		return CredentialPair{}, err
	}
	output := c
	output.Access = decAccess
	output.Renewal = decRenewal
	return output, nil
}

// String implements the Stringer interface for printing the pair in logs
func (c CredentialPair) String() string {
	return fmt.Sprintf(
		"CredentialPair<ID: %s, Access: redacted, Renewal: redacted, CreatedAt: %s, Encryption: %v>",
		c.ID,
		c.CreatedAt,
		c.encryptor != nil,
	)
}

// Empty indicates whether the pair is fully absent.
func (c CredentialPair) Empty() bool {
	return c.Access == "" && c.Renewal == ""
}
