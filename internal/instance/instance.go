// Package instance keeps a second updater from driving the same signs
// and names the running process.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned by Acquire when another process holds the lock.
var ErrAlreadyRunning = errors.New("another ledupdater instance is already running")

// Lock is an exclusive, advisory file lock held for the life of the process.
type Lock struct {
	path string
	lock *flock.Flock
	id   string
}

// Acquire takes the lock at path without blocking and records the pid
// and a fresh instance id in it.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		if holder := readHolder(path); holder != "" {
			return nil, fmt.Errorf("%w (%s)", ErrAlreadyRunning, holder)
		}
		return nil, ErrAlreadyRunning
	}

	l := &Lock{path: path, lock: fl, id: uuid.NewString()}
	contents := strconv.Itoa(os.Getpid()) + " " + l.id + "\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("write lock %s: %w", path, err)
	}
	return l, nil
}

// ID returns the instance id written to the lock file.
func (l *Lock) ID() string {
	return l.id
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the file. The file itself is left in place so a
// concurrent Acquire never locks an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

func readHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	pid, id, _ := strings.Cut(strings.TrimSpace(string(data)), " ")
	if pid == "" {
		return ""
	}
	if id == "" {
		return "pid " + pid
	}
	return "pid " + pid + ", instance " + id
}
