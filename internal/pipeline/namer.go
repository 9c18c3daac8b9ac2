package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName guards output naming across concurrent youtube-dubber
// processes writing into the same directory.
const lockFileName = ".youtube-dubber.lock"

// maxNameAttempts bounds the collision suffix search.
const maxNameAttempts = 1000

// OutputNamer assigns collision-free output names in a directory. The first
// video of a channel gets Channel.mp4, later ones Channel_1.mp4,
// Channel_2.mp4, and so on. Names are reserved by creating the file
// exclusively, so two jobs can never claim the same path even across
// processes.
type OutputNamer struct {
	dir  string
	lock *flock.Flock
}

// NewOutputNamer creates a namer for dir, creating the directory if needed.
func NewOutputNamer(dir string) (*OutputNamer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &OutputNamer{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}, nil
}

// Claim reserves the next free output path for a channel and returns it.
// The reserved file exists and is empty until the caller writes the real
// output over it.
func (n *OutputNamer) Claim(channel string) (string, error) {
	if err := n.lock.Lock(); err != nil {
		return "", fmt.Errorf("lock output directory: %w", err)
	}
	defer n.lock.Unlock()

	for i := 0; i < maxNameAttempts; i++ {
		name := channel + ".mp4"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.mp4", channel, i)
		}
		path := filepath.Join(n.dir, name)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			f.Close()
			return path, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("reserve output name %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("no free output name for channel %s after %d attempts", channel, maxNameAttempts)
}

// Release removes a previously claimed path. Used when a job fails after
// claiming its name, so the empty placeholder does not linger.
func (n *OutputNamer) Release(path string) {
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		os.Remove(path)
	}
}
