// Package credentials keeps the administrator's username and salted
// password hash in a small plaintext JSON file.
package credentials

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/filex"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
)

// DefaultUsername is used when a password is set before any username.
const DefaultUsername = "admin"

// defaultPasswordHash is sha256("password") with an empty salt.
const defaultPasswordHash = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"

// Record is the on-disk credential file.
type Record struct {
	Username     string `json:"admin_username"`
	PasswordHash string `json:"admin_password_hash"`
	Salt         string `json:"salt"`
}

// DefaultRecord is the well-known admin/password seed. It is only honoured
// when the store is built with allowDefault.
func DefaultRecord() Record {
	return Record{Username: DefaultUsername, PasswordHash: defaultPasswordHash, Salt: ""}
}

// Update lists the fields to change. Nil fields stay as they are.
type Update struct {
	Username *string
	Password *string
}

// HashPassword returns hex(sha256(password + salt)).
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

type Store struct {
	path         string
	saltLength   int
	allowDefault bool
	log          logging.Logger
}

// defaultSaltLength replaces a non-positive salt length given to NewStore.
const defaultSaltLength = 16

func NewStore(path string, saltLength int, allowDefault bool, log logging.Logger) *Store {
	if saltLength < 1 {
		saltLength = defaultSaltLength
	}
	return &Store{path: path, saltLength: saltLength, allowDefault: allowDefault, log: log}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Exists(ctx context.Context) (bool, error) {
	ok, err := filex.Exists(s.path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return ok, nil
}

func (s *Store) load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, fmt.Errorf("%w: %s", common.ErrorNotFound, s.path)
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", common.ErrIO, err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %w", common.ErrParse, err)
	}
	return r, nil
}

func (s *Store) save(r Record) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return nil
}

// current returns the stored record. With no file it falls back to the
// default seed (writing it out) if that is allowed.
func (s *Store) current(ctx context.Context) (Record, error) {
	r, err := s.load()
	if !errors.Is(err, common.ErrorNotFound) || !s.allowDefault {
		return r, err
	}

	s.log.Warn(ctx, "no admin credentials found, seeding insecure default", "path", s.path)
	r = DefaultRecord()
	if err := s.save(r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// VerifyLogin reports whether username and password match the stored
// record. Any failure to read the record counts as a mismatch.
func (s *Store) VerifyLogin(ctx context.Context, username, password string) bool {
	r, err := s.current(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "login attempted before admin credentials were initialised")
		} else {
			s.log.Error(ctx, "cannot read admin credentials", "error", err)
		}
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(r.Username)) == 1
	hashOK := subtle.ConstantTimeCompare([]byte(HashPassword(password, r.Salt)), []byte(r.PasswordHash)) == 1
	return userOK && hashOK
}

// UpdateCredentials applies u to the stored record. A new password always
// gets a new random salt. When no record exists yet a password is required.
func (s *Store) UpdateCredentials(ctx context.Context, u Update) error {
	if u.Username != nil && strings.TrimSpace(*u.Username) == "" {
		return fmt.Errorf("%w: username must not be empty", common.ErrValidation)
	}
	if u.Password != nil && *u.Password == "" {
		return fmt.Errorf("%w: password must not be empty", common.ErrValidation)
	}

	r, err := s.current(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		if u.Password == nil {
			return fmt.Errorf("%w: a password is required to initialise credentials", common.ErrValidation)
		}
		r = Record{Username: DefaultUsername}
	} else if err != nil {
		return err
	}

	if u.Password != nil {
		salt, err := common.MakeRandHexString(s.saltLength)
		if err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		r.Salt = salt
		r.PasswordHash = HashPassword(*u.Password, salt)
	}
	if u.Username != nil {
		r.Username = *u.Username
	}

	if err := s.save(r); err != nil {
		return err
	}
	s.log.Info(ctx, "admin credentials updated",
		"username_changed", u.Username != nil, "password_changed", u.Password != nil)
	return nil
}
